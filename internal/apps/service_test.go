package apps

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"acadex/internal/users"
	"acadex/internal/watch"
)

type fakeStore struct {
	mu   sync.Mutex
	apps map[string]Application
}

func newFakeStore() *fakeStore {
	return &fakeStore{apps: make(map[string]Application)}
}

func (f *fakeStore) Create(_ context.Context, a Application) (Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.SubmittedAt = time.Now().UTC()
	f.apps[a.ID] = a
	return a, nil
}

func (f *fakeStore) List(_ context.Context) ([]Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []Application
	for _, a := range f.apps {
		res = append(res, a)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].SubmittedAt.After(res[j].SubmittedAt) })
	return res, nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.apps[id]; ok {
		cp := a
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) LatestByEmail(_ context.Context, email string) (*Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *Application
	for _, a := range f.apps {
		if a.Email != email {
			continue
		}
		if latest == nil || a.SubmittedAt.After(latest.SubmittedAt) {
			cp := a
			latest = &cp
		}
	}
	return latest, nil
}

func (f *fakeStore) Decide(_ context.Context, id, status, adminUID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.apps[id]
	if !ok || a.Status != StatusPending {
		return false, nil
	}
	a.Status = status
	a.AdminUID = adminUID
	f.apps[id] = a
	return true, nil
}

type fakeProvisioner struct {
	mu         sync.Mutex
	institutes []users.Institute
	accounts   []users.ProvisionInput
	invites    []string
}

func (f *fakeProvisioner) Provision(_ context.Context, in users.ProvisionInput) (users.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts = append(f.accounts, in)
	return users.User{UID: "admin-" + in.Email, Email: in.Email, Role: in.Role, InstituteID: in.InstituteID}, nil
}

func (f *fakeProvisioner) CreateInstitute(_ context.Context, inst users.Institute) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.institutes = append(f.institutes, inst)
	return nil
}

func (f *fakeProvisioner) SendInvite(_ context.Context, email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invites = append(f.invites, email)
}

func newTestService() (*Service, *fakeStore, *fakeProvisioner) {
	store := newFakeStore()
	prov := &fakeProvisioner{}
	return NewService(store, prov, watch.NewHub(nil)), store, prov
}

func submit(t *testing.T, svc *Service, name, email string) Application {
	t.Helper()
	a, err := svc.Submit(context.Background(), SubmitInput{
		InstituteName: name,
		ContactName:   "Priya Nair",
		Email:         email,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return a
}

func TestSubmitValidation(t *testing.T) {
	svc, _, _ := newTestService()
	cases := []SubmitInput{
		{ContactName: "P", Email: "p@x.com"},
		{InstituteName: "I", Email: "p@x.com"},
		{InstituteName: "I", ContactName: "P"},
		{},
	}
	for _, in := range cases {
		if _, err := svc.Submit(context.Background(), in); !errors.Is(err, ErrMissingFields) {
			t.Errorf("Submit(%+v) = %v, want ErrMissingFields", in, err)
		}
	}
}

func TestSubmitStartsPending(t *testing.T) {
	svc, _, _ := newTestService()
	a := submit(t, svc, "Nalanda Institute", "admin@nalanda.edu")
	if a.Status != StatusPending {
		t.Errorf("status = %q, want pending", a.Status)
	}
	if a.ID == "" || a.SubmittedAt.IsZero() {
		t.Errorf("missing id or timestamp: %+v", a)
	}
}

func TestApproveCreatesTenantAndAdmin(t *testing.T) {
	svc, _, prov := newTestService()
	ctx := context.Background()
	a := submit(t, svc, "Nalanda Institute", "admin@nalanda.edu")

	approved, err := svc.Approve(ctx, a.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Errorf("status = %q, want approved", approved.Status)
	}
	if approved.AdminUID == "" {
		t.Error("approved application must carry the admin uid")
	}

	if len(prov.institutes) != 1 || prov.institutes[0].ID != a.ID {
		t.Fatalf("institutes = %+v, want one keyed by the application id", prov.institutes)
	}
	if len(prov.accounts) != 1 {
		t.Fatalf("accounts = %+v, want one", prov.accounts)
	}
	admin := prov.accounts[0]
	if admin.Role != users.RoleInstituteAdmin || admin.Email != "admin@nalanda.edu" || admin.InstituteID != a.ID {
		t.Errorf("provisioned admin = %+v", admin)
	}
	if admin.Password == "" {
		t.Error("provisioned admin needs a placeholder credential")
	}
}

func TestDecisionsAreOneWay(t *testing.T) {
	svc, _, prov := newTestService()
	ctx := context.Background()

	a := submit(t, svc, "Nalanda Institute", "admin@nalanda.edu")
	if _, err := svc.Approve(ctx, a.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := svc.Approve(ctx, a.ID); !errors.Is(err, ErrAlreadyDecided) {
		t.Errorf("second approve = %v, want ErrAlreadyDecided", err)
	}
	if err := svc.Deny(ctx, a.ID); !errors.Is(err, ErrAlreadyDecided) {
		t.Errorf("deny after approve = %v, want ErrAlreadyDecided", err)
	}
	if len(prov.institutes) != 1 {
		t.Errorf("re-decision must not create another tenant, got %d", len(prov.institutes))
	}

	b := submit(t, svc, "Takshila College", "admin@takshila.edu")
	if err := svc.Deny(ctx, b.ID); err != nil {
		t.Fatalf("Deny: %v", err)
	}
	if _, err := svc.Approve(ctx, b.ID); !errors.Is(err, ErrAlreadyDecided) {
		t.Errorf("approve after deny = %v, want ErrAlreadyDecided", err)
	}
}

func TestDecideUnknownApplication(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Approve(context.Background(), "no-such"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Approve = %v, want ErrNotFound", err)
	}
	if err := svc.Deny(context.Background(), "no-such"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Deny = %v, want ErrNotFound", err)
	}
}

func TestStatusByEmail(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.StatusByEmail(ctx, "nobody@x.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("StatusByEmail = %v, want ErrNotFound", err)
	}

	a := submit(t, svc, "Nalanda Institute", "admin@nalanda.edu")
	got, err := svc.StatusByEmail(ctx, "admin@nalanda.edu")
	if err != nil {
		t.Fatalf("StatusByEmail: %v", err)
	}
	if got.ID != a.ID || got.Status != StatusPending {
		t.Errorf("got %+v", got)
	}

	if _, err := svc.Approve(ctx, a.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	got, err = svc.StatusByEmail(ctx, "admin@nalanda.edu")
	if err != nil {
		t.Fatalf("StatusByEmail: %v", err)
	}
	if got.Status != StatusApproved {
		t.Errorf("status = %q, want approved", got.Status)
	}
}

func TestResendInvite(t *testing.T) {
	svc, _, prov := newTestService()
	ctx := context.Background()

	a := submit(t, svc, "Nalanda Institute", "admin@nalanda.edu")
	if err := svc.ResendInvite(ctx, a.ID); err == nil {
		t.Error("resend on a pending application must fail")
	}
	if _, err := svc.Approve(ctx, a.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := svc.ResendInvite(ctx, a.ID); err != nil {
		t.Fatalf("ResendInvite: %v", err)
	}
	if len(prov.invites) != 1 || prov.invites[0] != "admin@nalanda.edu" {
		t.Errorf("invites = %v", prov.invites)
	}
}

func TestWatchAllSeesDecisions(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	ch, cancel := svc.WatchAll(ctx)
	defer cancel()

	// Initial snapshot is the (empty) current queue.
	select {
	case list := <-ch:
		if len(list) != 0 {
			t.Fatalf("initial snapshot = %+v, want empty", list)
		}
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}

	a := submit(t, svc, "Nalanda Institute", "admin@nalanda.edu")
	waitFor(t, ch, func(list []Application) bool {
		return len(list) == 1 && list[0].Status == StatusPending
	})

	if _, err := svc.Approve(ctx, a.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	waitFor(t, ch, func(list []Application) bool {
		return len(list) == 1 && list[0].Status == StatusApproved
	})

	cancel()
	cancel() // safe twice
}

func waitFor(t *testing.T, ch <-chan []Application, ok func([]Application) bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case list, open := <-ch:
			if !open {
				t.Fatal("stream closed before expected snapshot")
			}
			if ok(list) {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}
