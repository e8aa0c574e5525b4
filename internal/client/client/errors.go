package client

import (
	"fmt"

	"github.com/dmitrijs2005/chatkeeper/internal/common"
)

// ErrUnavailable marks connection-level failures. It wraps
// common.ErrTransport so callers can match either the specific or the
// generic condition with errors.Is.
var ErrUnavailable = fmt.Errorf("server unavailable: %w", common.ErrTransport)
