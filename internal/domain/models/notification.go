package models

import (
	"time"
)

type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "PENDING"
	NotificationSent      NotificationStatus = "SENT"
	NotificationFailed    NotificationStatus = "FAILED"
	NotificationCompleted NotificationStatus = "COMPLETED"
)

type NotifyReason string

// Тексты причин сохранены в том виде, в котором они попадают в сообщение владельцу.
const (
	ReasonOwnerMissing      NotifyReason = "Owner is missing"
	ReasonOwnerInvalid      NotifyReason = "Owner is not valid email"
	ReasonStartDateMissing  NotifyReason = "Estimate start date is missing"
	ReasonStartDateImminent NotifyReason = "Estimated start date is within one day of today"
	ReasonDueDateMissing    NotifyReason = "Due date is missing"
	ReasonDueDateImminent   NotifyReason = "Due date is within one day of today"
)

// NotificationKey — естественный ключ уведомления: одна незавершённая запись
// на (файл, лист, строка, причина) в рамках одного хоста.
type NotificationKey struct {
	HostID    string
	SiteName  string
	DriveName string
	FilePath  string
	SheetName string
	Row       int
	Reason    NotifyReason
}

type Notification struct {
	ID          string
	HostID      string
	SiteName    string
	DriveName   string
	FilePath    string
	SheetName   string
	Row         int
	Task        string
	ChatID      string
	ChatName    string
	OwnerID     string
	OwnerEmail  string
	OwnerName   string
	CellAddress string
	Reason      NotifyReason
	MessageIDs  []string
	Status      NotificationStatus
	Attempts    int
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (n *Notification) Key() NotificationKey {
	return NotificationKey{
		HostID:    n.HostID,
		SiteName:  n.SiteName,
		DriveName: n.DriveName,
		FilePath:  n.FilePath,
		SheetName: n.SheetName,
		Row:       n.Row,
		Reason:    n.Reason,
	}
}

func (n *Notification) OwnerResolved() bool {
	return n.OwnerID != ""
}
