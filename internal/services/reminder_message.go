package services

import (
	"html"

	"github.com/fastygo/planner/domain"
)

var reminderTemplates = map[domain.ReminderType]string{
	domain.ReminderOneDay:     "⏰ Reminder: Your task is scheduled for tomorrow!",
	domain.ReminderThreeHours: "⏰ Reminder: Your task is in 3 hours!",
	domain.ReminderTwoHours:   "⏰ Reminder: Your task is in 2 hours!",
	domain.ReminderOneHour:    "⏰ Reminder: Your task is in 1 hour!",
}

const fallbackReminderTemplate = "⏰ Reminder: Your task is coming up!"

// FormatReminderMessage renders the HTML body sent for a reminder of the given type.
func FormatReminderMessage(title string, kind domain.ReminderType) string {
	text, ok := reminderTemplates[kind]
	if !ok {
		text = fallbackReminderTemplate
	}
	return text + "\n\n<b>" + html.EscapeString(title) + "</b>"
}
