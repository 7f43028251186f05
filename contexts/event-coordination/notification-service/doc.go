// Package notificationservice schedules in-app reminders when an event is
// packed up and serves each user's inbox. Reminders are rows with a
// scheduled_for time; nothing is pushed.
package notificationservice
