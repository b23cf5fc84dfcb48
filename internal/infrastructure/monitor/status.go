package monitor

import "time"

type Status struct {
	PostgreSQL  bool      `json:"postgresql"`
	Redis       bool      `json:"redis"`
	Journal     bool      `json:"journal"`
	DeadLetters int       `json:"dead_letters"`
	LastCheck   time.Time `json:"last_check"`
}
