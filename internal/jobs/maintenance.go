package jobs

import (
	"log"
	"time"

	"github.com/perkpoint/loyalty-backend/internal/storage"
)

// MaintenanceJob runs the periodic housekeeping sweeps: retiring OTP
// rows long past expiry and flipping subscriptions whose period ended
// to expired.
type MaintenanceJob struct {
	store storage.Store
	stop  chan struct{}
}

// NewMaintenanceJob creates a new maintenance job scheduler
func NewMaintenanceJob(store storage.Store) *MaintenanceJob {
	return &MaintenanceJob{
		store: store,
		stop:  make(chan struct{}),
	}
}

// Start begins the scheduled sweeps
func (j *MaintenanceJob) Start() {
	log.Println("Starting maintenance jobs...")
	go j.runOTPPurge()
	go j.runSubscriptionSweep()
}

// Stop halts all scheduled sweeps
func (j *MaintenanceJob) Stop() {
	log.Println("Stopping maintenance jobs...")
	close(j.stop)
}

// runOTPPurge soft-deletes OTP rows expired for more than 24 hours;
// the rows remain in the table for audit.
func (j *MaintenanceJob) runOTPPurge() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-24 * time.Hour)
			if err := j.store.DeleteExpiredOTPs(cutoff); err != nil {
				log.Printf("OTP purge failed: %v", err)
			}
		case <-j.stop:
			return
		}
	}
}

// runSubscriptionSweep expires subscriptions whose period has ended.
func (j *MaintenanceJob) runSubscriptionSweep() {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			flipped, err := j.store.MarkExpiredSubscriptions(time.Now())
			if err != nil {
				log.Printf("Subscription sweep failed: %v", err)
				continue
			}
			if flipped > 0 {
				log.Printf("Subscription sweep: %d subscriptions expired", flipped)
			}
		case <-j.stop:
			return
		}
	}
}
