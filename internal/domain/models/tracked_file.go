package models

import (
	"time"
)

// TrackedFile — таблица под постоянным наблюдением: один активный триггер на файл.
type TrackedFile struct {
	ID             string
	HostID         string
	SiteName       string
	DriveName      string
	FilePath       string
	SheetName      string
	NotifyInterval time.Duration
	LastNotifiedAt *time.Time
	NextNotifyAt   *time.Time
	TriggerID      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type FileLocation struct {
	SiteName  string
	DriveName string
	FilePath  string
}
