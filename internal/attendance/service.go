package attendance

import (
	"context"
	"encoding/csv"
	"io"
	"sync"

	"acadex/internal/watch"
)

// Store is the persistence the service needs.
type Store interface {
	Upsert(ctx context.Context, rec Record) (Record, error)
	ListBySession(ctx context.Context, sessionID string) ([]Record, error)
	ListAll(ctx context.Context) ([]Record, error)
}

// Service projects the ledger to teachers: ordered lists, live streams and
// the downloadable sheet. Writes go through the verification gate, not here.
type Service struct {
	store Store
	hub   *watch.Hub
}

// NewService creates a service.
func NewService(store Store, hub *watch.Hub) *Service {
	return &Service{store: store, hub: hub}
}

// ListBySession returns the session's records in roll-number order.
func (s *Service) ListBySession(ctx context.Context, sessionID string) ([]Record, error) {
	records, err := s.store.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	SortByRoll(records)
	return records, nil
}

// WatchSession is the teacher's live list: the full ordered result set is
// re-delivered after every change, latest snapshot wins. The cancel func
// must be called when the consumer goes away.
func (s *Service) WatchSession(ctx context.Context, sessionID string) (<-chan []Record, func()) {
	notify, unsubscribe := s.hub.Subscribe(watch.TopicAttendance(sessionID))
	out := make(chan []Record, 1)
	done := make(chan struct{})

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			unsubscribe()
			close(done)
		})
	}

	go func() {
		defer close(out)
		push := func() {
			records, err := s.ListBySession(ctx, sessionID)
			if err != nil {
				return
			}
			select {
			case out <- records:
			default:
				select {
				case <-out:
				default:
				}
				select {
				case out <- records:
				default:
				}
			}
		}

		push()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-notify:
				push()
			}
		}
	}()

	return out, cancel
}

var csvHeader = []string{"Roll No.", "First Name", "Last Name", "Email", "Marked At"}

// ExportCSV writes the attendance sheet for one session, or for the whole
// ledger when sessionID is empty, in roll-number order.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, sessionID string) error {
	var records []Record
	var err error
	if sessionID == "" {
		records, err = s.store.ListAll(ctx)
	} else {
		records, err = s.store.ListBySession(ctx, sessionID)
	}
	if err != nil {
		return err
	}
	SortByRoll(records)

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{rec.RollNo, rec.FirstName, rec.LastName, rec.Email, rec.MarkedAt.Format("2006-01-02 15:04:05")}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
