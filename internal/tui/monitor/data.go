package monitor

import (
	"time"

	"github.com/hartley/lx/internal/store"
)

const activityLimit = 50

// FetchData retrieves all data needed for the monitor display
func FetchData(st *store.Store) RefreshDataMsg {
	msg := RefreshDataMsg{
		Timestamp: time.Now(),
	}

	profile, err := st.LoadProfile()
	if err != nil {
		msg.Err = err
		return msg
	}
	msg.Profile = profile

	queue, err := st.PendingItems("")
	if err != nil {
		msg.Err = err
		return msg
	}
	msg.Queue = queue

	activity, err := st.RecentActivities(activityLimit)
	if err != nil {
		msg.Err = err
		return msg
	}
	msg.Activity = activity

	return msg
}
