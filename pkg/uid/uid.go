package uid

import (
	"fmt"
	"os"
	"time"

	"github.com/sony/sonyflake"
)

// UID generates unique sortable id, i.e: for batch run id.
type UID interface {
	NextID() (uint64, error)
}

var _ UID = (*sonyflake.Sonyflake)(nil)

// NewSonyflake returns sonyflake generator.
// Sonyflake derives machine id from the private ip address by default, which is not always available
// (i.e: inside some containers), so we fall back to the process id.
func NewSonyflake(startTime time.Time) (UID, error) {
	gen := sonyflake.NewSonyflake(sonyflake.Settings{
		StartTime: startTime,
	})
	if gen != nil {
		return gen, nil
	}

	gen = sonyflake.NewSonyflake(sonyflake.Settings{
		StartTime: startTime,
		MachineID: func() (uint16, error) {
			return uint16(os.Getpid()), nil
		},
	})
	if gen == nil {
		return nil, fmt.Errorf("uid generator is nil")
	}

	return gen, nil
}
