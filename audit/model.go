// api/audit/model.go
package audit

import (
	"time"
)

type DecisionLog struct {
	Timestamp     time.Time `json:"timestamp"`
	RequestID     string    `json:"request_id"`
	PrincipalID   string    `json:"principal_id"`
	Roles         []string  `json:"roles"`
	Method        string    `json:"method"`
	Path          string    `json:"path"`
	AccessGranted bool      `json:"access_granted"`
	Reason        string    `json:"reason,omitempty"`
}
