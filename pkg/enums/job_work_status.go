package enums

import "fmt"

// JobWorkStatus tracks one unit of outsourced lens work at a vendor.
type JobWorkStatus string

const (
	JobWorkStatusPending  JobWorkStatus = "pending"
	JobWorkStatusReceived JobWorkStatus = "received"
	JobWorkStatusDamaged  JobWorkStatus = "damaged"
	JobWorkStatusCanceled JobWorkStatus = "canceled"
)

var validJobWorkStatuses = []JobWorkStatus{
	JobWorkStatusPending,
	JobWorkStatusReceived,
	JobWorkStatusDamaged,
	JobWorkStatusCanceled,
}

// String implements fmt.Stringer.
func (j JobWorkStatus) String() string {
	return string(j)
}

// IsValid reports whether the value is a known JobWorkStatus.
func (j JobWorkStatus) IsValid() bool {
	for _, candidate := range validJobWorkStatuses {
		if candidate == j {
			return true
		}
	}
	return false
}

// IsActive reports whether a job work in this status still occupies its
// (order, side) slot. Damaged and canceled records are superseded history.
func (j JobWorkStatus) IsActive() bool {
	return j == JobWorkStatusPending || j == JobWorkStatusReceived
}

// ParseJobWorkStatus converts raw input into a JobWorkStatus.
func ParseJobWorkStatus(value string) (JobWorkStatus, error) {
	for _, candidate := range validJobWorkStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid job work status %q", value)
}
