package types

import (
	"fmt"
	"strings"
)

// URLKind classifies what a URL points at.
type URLKind string

const (
	URLList     URLKind = "list"
	URLEdit     URLKind = "edit"
	URLDelete   URLKind = "delete"
	URLFrontend URLKind = "frontend"
	URLAdmin    URLKind = "admin"
)

// URLEntry is one discovered URL. Entries are never mutated after creation.
type URLEntry struct {
	DisplayName   string  `json:"model_name"`
	InstanceLabel *string `json:"instance_label,omitempty"`
	Kind          URLKind `json:"url_type"`
	URL           string  `json:"url"`
}

// BaseName returns DisplayName without the " (label)" suffix.
func (e URLEntry) BaseName() string {
	if e.InstanceLabel == nil {
		return e.DisplayName
	}
	return strings.TrimSuffix(e.DisplayName, " ("+*e.InstanceLabel+")")
}

// Entry returns the entry itself so URLEntry and CheckedURLEntry share an accessor.
func (e URLEntry) Entry() URLEntry { return e }

// Status is the reachability classification of a probed URL.
type Status string

const (
	StatusOK          Status = "OK"
	StatusAuthFailed  Status = "AUTH_FAILED"
	StatusNotFound    Status = "NOT_FOUND"
	StatusServerError Status = "SERVER_ERROR"
	StatusError       Status = "ERROR"
	StatusUnchecked   Status = "UNCHECKED"
)

// CheckStatus carries a Status plus the HTTP code or transport message behind it.
type CheckStatus struct {
	Status  Status `json:"status"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s CheckStatus) String() string {
	switch s.Status {
	case StatusServerError, StatusError:
		if s.Message != "" {
			return fmt.Sprintf("%s (%s)", s.Status, s.Message)
		}
		if s.Code != 0 {
			return fmt.Sprintf("%s (%d)", s.Status, s.Code)
		}
	}
	return string(s.Status)
}

// OK reports whether the probe succeeded.
func (s CheckStatus) OK() bool { return s.Status == StatusOK }

// CheckedURLEntry is a URLEntry with the outcome of its liveness probe.
type CheckedURLEntry struct {
	URLEntry
	Status CheckStatus `json:"status"`
}

// Entry returns the embedded URLEntry.
func (c CheckedURLEntry) Entry() URLEntry { return c.URLEntry }

// Entrier is implemented by URLEntry and CheckedURLEntry.
type Entrier interface {
	Entry() URLEntry
}
