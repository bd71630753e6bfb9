package audit

import "errors"

var ErrAuditWriteFailed = errors.New("failed to record audit entry")
