package errors

import (
	"fmt"
)

type ErrMeetingNotFound struct {
	MeetingID string
}

func (e *ErrMeetingNotFound) Error() string {
	return "встреча не найдена: " + e.MeetingID
}

func (e *ErrMeetingNotFound) Is(target error) bool {
	_, ok := target.(*ErrMeetingNotFound)
	return ok
}

type ErrAttendeeNotFound struct {
	MeetingID string
	Attendee  string
}

func (e *ErrAttendeeNotFound) Error() string {
	return fmt.Sprintf("участник %s не найден во встрече %s", e.Attendee, e.MeetingID)
}

func (e *ErrAttendeeNotFound) Is(target error) bool {
	_, ok := target.(*ErrAttendeeNotFound)
	return ok
}

type ErrInvalidMeetingState struct {
	MeetingID string
	Status    string
}

func (e *ErrInvalidMeetingState) Error() string {
	return fmt.Sprintf("встреча %s в состоянии %s, операция невозможна", e.MeetingID, e.Status)
}

func (e *ErrInvalidMeetingState) Is(target error) bool {
	_, ok := target.(*ErrInvalidMeetingState)
	return ok
}

type ErrSlotsExhausted struct {
	MeetingID string
}

func (e *ErrSlotsExhausted) Error() string {
	return "кандидатные слоты исчерпаны для встречи: " + e.MeetingID
}

func (e *ErrSlotsExhausted) Is(target error) bool {
	_, ok := target.(*ErrSlotsExhausted)
	return ok
}

type ErrNoSlotsFound struct {
	HostEmail string
}

func (e *ErrNoSlotsFound) Error() string {
	return "не найдено ни одного свободного слота для хоста: " + e.HostEmail
}

func (e *ErrNoSlotsFound) Is(target error) bool {
	_, ok := target.(*ErrNoSlotsFound)
	return ok
}

type ErrNotificationNotFound struct {
	NotificationID string
}

func (e *ErrNotificationNotFound) Error() string {
	return "уведомление не найдено: " + e.NotificationID
}

func (e *ErrNotificationNotFound) Is(target error) bool {
	_, ok := target.(*ErrNotificationNotFound)
	return ok
}

type ErrTrackedFileNotFound struct {
	FilePath string
}

func (e *ErrTrackedFileNotFound) Error() string {
	return "отслеживаемый файл не найден: " + e.FilePath
}

func (e *ErrTrackedFileNotFound) Is(target error) bool {
	_, ok := target.(*ErrTrackedFileNotFound)
	return ok
}

type ErrChatNotFound struct {
	ChatName string
}

func (e *ErrChatNotFound) Error() string {
	return "чат не найден: " + e.ChatName
}

func (e *ErrChatNotFound) Is(target error) bool {
	_, ok := target.(*ErrChatNotFound)
	return ok
}

type ErrIdentityNotFound struct {
	Email string
}

func (e *ErrIdentityNotFound) Error() string {
	return "пользователь не найден: " + e.Email
}

func (e *ErrIdentityNotFound) Is(target error) bool {
	_, ok := target.(*ErrIdentityNotFound)
	return ok
}

type ErrRateLimited struct {
	RetryAfter string
}

func (e *ErrRateLimited) Error() string {
	if e.RetryAfter != "" {
		return "превышен лимит запросов, Retry-After: " + e.RetryAfter
	}

	return "превышен лимит запросов"
}

func (e *ErrRateLimited) Is(target error) bool {
	_, ok := target.(*ErrRateLimited)
	return ok
}

type ErrVersionConflict struct {
	Entity string
	ID     string
}

func (e *ErrVersionConflict) Error() string {
	return fmt.Sprintf("конфликт версий при обновлении %s %s", e.Entity, e.ID)
}

func (e *ErrVersionConflict) Is(target error) bool {
	_, ok := target.(*ErrVersionConflict)
	return ok
}

type ErrInvalidArgument struct {
	Message string
}

func (e *ErrInvalidArgument) Error() string {
	return fmt.Sprintf("некорректный аргумент: %s", e.Message)
}

func (e *ErrInvalidArgument) Is(target error) bool {
	_, ok := target.(*ErrInvalidArgument)
	return ok
}

type ErrUnknownDBAccessType struct {
	AccessType string
}

func (e *ErrUnknownDBAccessType) Error() string {
	return fmt.Sprintf("неизвестный тип доступа к базе данных: %s", e.AccessType)
}

type ErrBeginTransaction struct {
	Cause error
}

func (e *ErrBeginTransaction) Error() string {
	return fmt.Sprintf("ошибка при начале транзакции: %v", e.Cause)
}

func (e *ErrBeginTransaction) Unwrap() error {
	return e.Cause
}

type ErrBuildSQLQuery struct {
	Operation string
	Cause     error
}

func (e *ErrBuildSQLQuery) Error() string {
	return fmt.Sprintf("ошибка при построении SQL запроса для %s: %v", e.Operation, e.Cause)
}

func (e *ErrBuildSQLQuery) Unwrap() error {
	return e.Cause
}

type ErrSQLExecution struct {
	Operation string
	Cause     error
}

func (e *ErrSQLExecution) Error() string {
	return fmt.Sprintf("ошибка при выполнении SQL запроса для %s: %v", e.Operation, e.Cause)
}

func (e *ErrSQLExecution) Unwrap() error {
	return e.Cause
}

type ErrSQLScan struct {
	Entity string
	Cause  error
}

func (e *ErrSQLScan) Error() string {
	return fmt.Sprintf("ошибка при сканировании %s: %v", e.Entity, e.Cause)
}

func (e *ErrSQLScan) Unwrap() error {
	return e.Cause
}

type ErrCommitTransaction struct {
	Cause error
}

func (e *ErrCommitTransaction) Error() string {
	return fmt.Sprintf("ошибка при фиксации транзакции: %v", e.Cause)
}

func (e *ErrCommitTransaction) Unwrap() error {
	return e.Cause
}

type ErrBadRequest struct {
	Message string
}

func (e *ErrBadRequest) Error() string {
	return fmt.Sprintf("bad request: %s", e.Message)
}

type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error: %d", e.StatusCode)
}
