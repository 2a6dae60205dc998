package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/service-marketplace/internal/database/testhelper"
	"github.com/iliyamo/service-marketplace/internal/model"
	"github.com/iliyamo/service-marketplace/internal/queue"
	"github.com/iliyamo/service-marketplace/internal/repository"
	"github.com/iliyamo/service-marketplace/internal/utils"
	"github.com/iliyamo/service-marketplace/internal/validation"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []queue.NotificationEvent
}

func (n *recordingNotifier) Enqueue(ev queue.NotificationEvent) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return true
}

func (n *recordingNotifier) ofKind(kind string) []queue.NotificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []queue.NotificationEvent
	for _, ev := range n.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

type env struct {
	db         *sql.DB
	users      *repository.UserRepo
	contactDB  *repository.ContactRequestRepo
	reportDB   *repository.ContentReportRepo
	notifier   *recordingNotifier
	contacts   *ContactService
	ratings    *RatingService
	moderation *ModerationService
	reports    *ReportService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testhelper.SetupTestDB(t)
	log := zaptest.NewLogger(t)
	n := &recordingNotifier{}

	contactRepo := repository.NewContactRequestRepo(db)
	ratingRepo := repository.NewRatingRepo(db)
	serviceRepo := repository.NewServiceRepo(db)
	userRepo := repository.NewUserRepo(db)
	reportRepo := repository.NewContentReportRepo(db)
	v := validation.New()
	tokens := NewTokenManager(contactRepo, ratingRepo)

	cs := NewContactService(db, contactRepo, serviceRepo, ratingRepo, tokens, v, n, log)
	return &env{
		db:        db,
		users:     userRepo,
		contactDB: contactRepo,
		reportDB:  reportRepo,
		notifier:  n,
		contacts:  cs,
		ratings:   NewRatingService(db, contactRepo, ratingRepo, userRepo, tokens, v, n, log),
		moderation: NewModerationService(db, ModerationDeps{
			Services:      serviceRepo,
			Users:         userRepo,
			Sessions:      repository.NewSessionRepo(db),
			Contacts:      contactRepo,
			Reports:       reportRepo,
			Actions:       repository.NewModerationActionRepo(db),
			Notifications: repository.NewNotificationRepo(db),
		}, cs, n, log, DefaultMinJustification),
		reports: NewReportService(reportRepo, serviceRepo, v, log),
	}
}

func (e *env) status(t *testing.T, contactID uint64) model.Status {
	t.Helper()
	var s string
	require.NoError(t, e.db.QueryRow(`SELECT status FROM contact_requests WHERE id = ?`, contactID).Scan(&s))
	return model.Status(s)
}

func (e *env) token(t *testing.T, contactID uint64) sql.NullString {
	t.Helper()
	var tok sql.NullString
	require.NoError(t, e.db.QueryRow(`SELECT rating_token FROM contact_requests WHERE id = ?`, contactID).Scan(&tok))
	return tok
}

func newToken(t *testing.T) string {
	t.Helper()
	tok, err := utils.RandomHex(32)
	require.NoError(t, err)
	return tok
}

func TestContactToRatingScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seller := testhelper.SeedSeller(t, e.db)
	svc := testhelper.SeedService(t, e.db, seller)

	cr, err := e.contacts.Create(ctx, svc, model.ClientInfo{
		Name:            "  Ann Client ",
		Email:           "Ann@Example.com",
		TaskDescription: "Fix the kitchen sink",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusNew, cr.Status)
	assert.Equal(t, "ann@example.com", cr.ClientEmail)
	assert.Len(t, e.notifier.ofKind(queue.KindContactCreated), 1)

	for _, st := range []model.Status{model.StatusSeen, model.StatusInProcess} {
		out, err := e.contacts.Transition(ctx, cr.ID, seller, st)
		require.NoError(t, err)
		assert.Empty(t, out.IssuedToken)
	}
	done, err := e.contacts.Transition(ctx, cr.ID, seller, model.StatusCompleted)
	require.NoError(t, err)
	require.NotEmpty(t, done.IssuedToken)
	require.NotNil(t, done.Request.RatingTokenExpiresAt)

	completed := e.notifier.ofKind(queue.KindContactCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, done.IssuedToken, completed[0].RatingToken)
	assert.Equal(t, "ann@example.com", completed[0].ClientEmail)

	info, err := e.ratings.InspectToken(ctx, done.IssuedToken)
	require.NoError(t, err)
	assert.Equal(t, cr.ID, info.ContactRequestID)
	assert.Equal(t, seller, info.SellerID)

	review := "  great work "
	r, err := e.ratings.CreateFromToken(ctx, RatingInput{Token: done.IssuedToken, Score: 5, ReviewText: &review})
	require.NoError(t, err)
	assert.True(t, r.IsVerified)
	require.NotNil(t, r.ReviewText)
	assert.Equal(t, "great work", *r.ReviewText)
	assert.False(t, e.token(t, cr.ID).Valid)

	st, err := e.ratings.SellerStats(ctx, seller)
	require.NoError(t, err)
	assert.InDelta(t, 5.00, st.AverageRating, 0.001)
	assert.Equal(t, 1, st.TotalCompletedJobs)
	assert.NotNil(t, st.LastJobDate)

	_, err = e.ratings.CreateFromToken(ctx, RatingInput{Token: done.IssuedToken, Score: 1})
	assert.ErrorIs(t, err, repository.ErrTokenInvalid)

	// A rated request never gets a second token.
	_, err = e.contacts.Transition(ctx, cr.ID, seller, model.StatusInProcess)
	require.NoError(t, err)
	again, err := e.contacts.Transition(ctx, cr.ID, seller, model.StatusCompleted)
	require.NoError(t, err)
	assert.Empty(t, again.IssuedToken)

	list, err := e.ratings.ByService(ctx, svc, repository.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Total)
}

func TestLeavingCompletedDropsToken(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seller := testhelper.SeedSeller(t, e.db)
	svc := testhelper.SeedService(t, e.db, seller)
	id := testhelper.SeedContactRequest(t, e.db, svc, string(model.StatusInProcess))

	first, err := e.contacts.Transition(ctx, id, seller, model.StatusCompleted)
	require.NoError(t, err)
	require.NotEmpty(t, first.IssuedToken)

	back, err := e.contacts.Transition(ctx, id, seller, model.StatusInProcess)
	require.NoError(t, err)
	assert.True(t, back.Plan.ClearToken)
	assert.False(t, e.token(t, id).Valid)

	_, err = e.ratings.CreateFromToken(ctx, RatingInput{Token: first.IssuedToken, Score: 4})
	assert.ErrorIs(t, err, repository.ErrTokenInvalid)

	second, err := e.contacts.Transition(ctx, id, seller, model.StatusCompleted)
	require.NoError(t, err)
	assert.NotEmpty(t, second.IssuedToken)
	assert.NotEqual(t, first.IssuedToken, second.IssuedToken)
}

func TestTransitionErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seller := testhelper.SeedSeller(t, e.db)
	other := testhelper.SeedSeller(t, e.db)
	svc := testhelper.SeedService(t, e.db, seller)
	id := testhelper.SeedContactRequest(t, e.db, svc, string(model.StatusNew))
	locked := testhelper.SeedContactRequest(t, e.db, svc, string(model.StatusServiceDeleted))

	_, err := e.contacts.Transition(ctx, id, other, model.StatusSeen)
	assert.ErrorIs(t, err, repository.ErrForbidden)

	_, err = e.contacts.Transition(ctx, id, seller, model.StatusSellerInactive)
	var verr *repository.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "status", verr.Errors[0].Field)

	_, err = e.contacts.Transition(ctx, locked, seller, model.StatusNew)
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = e.contacts.Transition(ctx, 1<<40, seller, model.StatusSeen)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = e.contacts.Get(ctx, id, other)
	assert.ErrorIs(t, err, repository.ErrForbidden)
}

func TestConcurrentTokenRedemption(t *testing.T) {
	e := newEnv(t)
	seller := testhelper.SeedSeller(t, e.db)
	svc := testhelper.SeedService(t, e.db, seller)
	tok := newToken(t)
	id := testhelper.SeedCompletedWithToken(t, e.db, svc, tok, time.Now().Add(time.Hour))

	const redeemers = 8
	var (
		mu        sync.Mutex
		successes int
		failures  []error
	)
	var g errgroup.Group
	for i := 0; i < redeemers; i++ {
		score := i%5 + 1
		g.Go(func() error {
			_, err := e.ratings.CreateFromToken(context.Background(), RatingInput{Token: tok, Score: score})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else {
				failures = append(failures, err)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, successes)
	require.Len(t, failures, redeemers-1)
	for _, err := range failures {
		assert.ErrorIs(t, err, repository.ErrTokenInvalid)
	}
	assert.Equal(t, 1, testhelper.Count(t, e.db, `SELECT COUNT(*) FROM ratings WHERE contact_request_id = ?`, id))
	assert.False(t, e.token(t, id).Valid)
}

func TestExpiredTokenIsKept(t *testing.T) {
	e := newEnv(t)
	seller := testhelper.SeedSeller(t, e.db)
	svc := testhelper.SeedService(t, e.db, seller)
	tok := newToken(t)
	id := testhelper.SeedCompletedWithToken(t, e.db, svc, tok, time.Now().Add(-time.Minute))

	_, err := e.ratings.CreateFromToken(context.Background(), RatingInput{Token: tok, Score: 3})
	assert.ErrorIs(t, err, repository.ErrTokenExpired)

	_, err = e.ratings.InspectToken(context.Background(), tok)
	assert.ErrorIs(t, err, repository.ErrTokenExpired)

	got := e.token(t, id)
	require.True(t, got.Valid)
	assert.Equal(t, tok, got.String)
	assert.Zero(t, testhelper.Count(t, e.db, `SELECT COUNT(*) FROM ratings WHERE contact_request_id = ?`, id))
}

func TestRatingValidationLeavesTokenAlone(t *testing.T) {
	e := newEnv(t)
	seller := testhelper.SeedSeller(t, e.db)
	svc := testhelper.SeedService(t, e.db, seller)
	tok := newToken(t)
	id := testhelper.SeedCompletedWithToken(t, e.db, svc, tok, time.Now().Add(time.Hour))

	_, err := e.ratings.CreateFromToken(context.Background(), RatingInput{Token: tok, Score: 6})
	assert.ErrorIs(t, err, repository.ErrValidation)
	assert.True(t, e.token(t, id).Valid)
}

func TestSellerStatsMean(t *testing.T) {
	e := newEnv(t)
	seller := testhelper.SeedSeller(t, e.db)
	svc := testhelper.SeedService(t, e.db, seller)

	for _, score := range []int{5, 4, 4} {
		tok := newToken(t)
		testhelper.SeedCompletedWithToken(t, e.db, svc, tok, time.Now().Add(time.Hour))
		_, err := e.ratings.CreateFromToken(context.Background(), RatingInput{Token: tok, Score: score})
		require.NoError(t, err)
	}

	st, err := e.ratings.SellerStats(context.Background(), seller)
	require.NoError(t, err)
	assert.InDelta(t, 4.33, st.AverageRating, 0.001)
	assert.Equal(t, 3, st.TotalCompletedJobs)

	list, err := e.ratings.BySeller(context.Background(), seller, repository.Page{Size: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, list.Total)
	assert.Len(t, list.Items, 2)
}

func seedEveryStatus(t *testing.T, db *sql.DB, serviceID uint64) map[model.Status]uint64 {
	t.Helper()
	ids := make(map[model.Status]uint64, len(model.AllStatuses))
	for _, st := range model.AllStatuses {
		ids[st] = testhelper.SeedContactRequest(t, db, serviceID, string(st))
	}
	return ids
}

func TestDeleteServiceSweep(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := testhelper.SeedAdmin(t, e.db)
	seller := testhelper.SeedSeller(t, e.db)
	svc := testhelper.SeedService(t, e.db, seller)
	ids := seedEveryStatus(t, e.db, svc)
	report := testhelper.SeedReport(t, e.db, svc)

	in := ModerationInput{AdminID: admin, TargetID: svc, Justification: "listing violates the terms"}
	res, err := e.moderation.DeleteService(ctx, in)
	require.NoError(t, err)
	assert.EqualValues(t, 5, res.Swept)
	require.NotNil(t, res.Notification)
	assert.Equal(t, seller, res.Notification.SellerID)

	for st, id := range ids {
		want := model.StatusServiceDeleted
		if st == model.StatusCompleted {
			want = model.StatusCompleted
		}
		assert.Equal(t, want, e.status(t, id), "seeded as %s", st)
	}
	assert.Equal(t, 1, testhelper.Count(t, e.db,
		`SELECT COUNT(*) FROM content_reports WHERE id = ? AND status = 'RESOLVED'`, report))

	_, err = e.contacts.Create(ctx, svc, model.ClientInfo{Name: "A", Email: "a@example.com", TaskDescription: "x"})
	assert.ErrorIs(t, err, repository.ErrServiceNotFound)

	again, err := e.moderation.DeleteService(ctx, in)
	require.NoError(t, err)
	assert.Zero(t, again.Swept)
	assert.Equal(t, 2, testhelper.Count(t, e.db,
		`SELECT COUNT(*) FROM moderation_actions WHERE service_id = ? AND action = 'delete-service'`, svc))
}

func TestSuspendAndReinstateSeller(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := testhelper.SeedAdmin(t, e.db)
	seller := testhelper.SeedSeller(t, e.db)
	svcA := testhelper.SeedService(t, e.db, seller)
	svcB := testhelper.SeedService(t, e.db, seller)
	open := testhelper.SeedContactRequest(t, e.db, svcA, string(model.StatusInProcess))
	done := testhelper.SeedContactRequest(t, e.db, svcB, string(model.StatusCompleted))
	testhelper.SeedSession(t, e.db, seller)

	in := ModerationInput{AdminID: admin, TargetID: seller, Justification: "repeated no-shows reported"}
	res, err := e.moderation.SuspendSeller(ctx, in)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Swept)
	assert.Equal(t, model.StatusSellerInactive, e.status(t, open))
	assert.Equal(t, model.StatusCompleted, e.status(t, done))
	assert.Zero(t, testhelper.Count(t, e.db, `SELECT COUNT(*) FROM services WHERE seller_id = ? AND is_active`, seller))
	assert.Zero(t, testhelper.Count(t, e.db, `SELECT COUNT(*) FROM sessions WHERE user_id = ? AND revoked_at IS NULL`, seller))

	_, err = e.moderation.SuspendSeller(ctx, in)
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = e.moderation.ReinstateSeller(ctx, in)
	require.NoError(t, err)
	_, err = e.moderation.ReinstateSeller(ctx, in)
	assert.ErrorIs(t, err, repository.ErrConflict)

	// Services stay hidden until an admin approves them.
	_, err = e.contacts.Create(ctx, svcA, model.ClientInfo{Name: "A", Email: "a@example.com", TaskDescription: "x"})
	assert.ErrorIs(t, err, repository.ErrServiceNotFound)
	_, err = e.moderation.ApproveService(ctx, ModerationInput{AdminID: admin, TargetID: svcA, Justification: "seller reinstated"})
	require.NoError(t, err)
	_, err = e.contacts.Create(ctx, svcA, model.ClientInfo{Name: "A", Email: "a@example.com", TaskDescription: "x"})
	require.NoError(t, err)

	history, total, err := e.moderation.History(ctx, repository.ModerationHistoryFilter{SellerID: seller})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, model.ActionApproveService, history[0].Action)
}

func TestDeleteSellerErasesDependents(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := testhelper.SeedAdmin(t, e.db)
	seller := testhelper.SeedSeller(t, e.db)
	svc := testhelper.SeedService(t, e.db, seller)
	seedEveryStatus(t, e.db, svc)
	testhelper.SeedReport(t, e.db, svc)
	testhelper.SeedSession(t, e.db, seller)

	before, err := e.contactDB.CountBySeller(ctx, seller)
	require.NoError(t, err)
	require.Positive(t, before)
	reports, err := e.reportDB.CountBySeller(ctx, seller)
	require.NoError(t, err)
	require.Equal(t, 1, reports)

	res, err := e.moderation.DeleteSeller(ctx, ModerationInput{
		AdminID: admin, TargetID: seller, Justification: "fraud confirmed by support",
	})
	require.NoError(t, err)
	assert.Nil(t, res.Notification)

	after, err := e.contactDB.CountBySeller(ctx, seller)
	require.NoError(t, err)
	assert.Zero(t, after)
	reports, err = e.reportDB.CountBySeller(ctx, seller)
	require.NoError(t, err)
	assert.Zero(t, reports)
	_, err = e.users.GetByID(ctx, seller)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.Zero(t, testhelper.Count(t, e.db, `SELECT COUNT(*) FROM contact_requests WHERE service_id = ?`, svc))
	assert.Zero(t, testhelper.Count(t, e.db, `SELECT COUNT(*) FROM content_reports WHERE service_id = ?`, svc))
	assert.Zero(t, testhelper.Count(t, e.db, `SELECT COUNT(*) FROM users WHERE id = ?`, seller))
	assert.Equal(t, 1, testhelper.Count(t, e.db,
		`SELECT COUNT(*) FROM moderation_actions WHERE seller_id = ? AND action = 'delete-seller'`, seller))

	events := e.notifier.ofKind(queue.ModerationKind(string(model.ActionDeleteSeller)))
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].SellerEmail)

	_, err = e.moderation.DeleteSeller(ctx, ModerationInput{AdminID: admin, TargetID: seller, Justification: "fraud confirmed by support"})
	assert.ErrorIs(t, err, repository.ErrSellerNotFound)
}

func TestModerationRejectsShortJustification(t *testing.T) {
	e := newEnv(t)
	admin := testhelper.SeedAdmin(t, e.db)
	seller := testhelper.SeedSeller(t, e.db)

	_, err := e.moderation.SuspendSeller(context.Background(), ModerationInput{AdminID: admin, TargetID: seller, Justification: " spam "})
	var verr *repository.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "justification", verr.Errors[0].Field)
	assert.Zero(t, testhelper.Count(t, e.db, `SELECT COUNT(*) FROM moderation_actions WHERE seller_id = ?`, seller))
}

func TestConcurrentTransitionsSettleOnOneTarget(t *testing.T) {
	e := newEnv(t)
	seller := testhelper.SeedSeller(t, e.db)
	svc := testhelper.SeedService(t, e.db, seller)
	id := testhelper.SeedContactRequest(t, e.db, svc, string(model.StatusNew))

	targets := []model.Status{model.StatusSeen, model.StatusInProcess, model.StatusNoInterest, model.StatusSeen, model.StatusInProcess}
	var (
		mu   sync.Mutex
		done []model.Status
	)
	var g errgroup.Group
	for _, target := range targets {
		g.Go(func() error {
			out, err := e.contacts.Transition(context.Background(), id, seller, target)
			if err != nil {
				return err
			}
			mu.Lock()
			done = append(done, out.Request.Status)
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, done, len(targets))
	assert.Contains(t, []model.Status{model.StatusSeen, model.StatusInProcess, model.StatusNoInterest}, e.status(t, id))
}

func TestConcurrentRatingsForOneSeller(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seller := testhelper.SeedSeller(t, e.db)
	svcA := testhelper.SeedService(t, e.db, seller)
	svcB := testhelper.SeedService(t, e.db, seller)

	const n = 6
	tokens := make([]string, n)
	for i := range tokens {
		svc := svcA
		if i%2 == 1 {
			svc = svcB
		}
		tokens[i] = newToken(t)
		testhelper.SeedCompletedWithToken(t, e.db, svc, tokens[i], time.Now().Add(time.Hour))
	}

	var g errgroup.Group
	for i, tok := range tokens {
		score := i%5 + 1
		g.Go(func() error {
			_, err := e.ratings.CreateFromToken(ctx, RatingInput{Token: tok, Score: score})
			return err
		})
	}
	require.NoError(t, g.Wait())

	st, err := e.ratings.SellerStats(ctx, seller)
	require.NoError(t, err)
	assert.EqualValues(t, n, st.TotalCompletedJobs)
	assert.Equal(t, n, testhelper.Count(t, e.db, `SELECT COUNT(*) FROM ratings WHERE seller_id = ?`, seller))
}

func TestNotificationOwnership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := testhelper.SeedAdmin(t, e.db)
	seller := testhelper.SeedSeller(t, e.db)
	other := testhelper.SeedSeller(t, e.db)
	svc := testhelper.SeedService(t, e.db, seller)

	res, err := e.moderation.ApproveService(ctx, ModerationInput{AdminID: admin, TargetID: svc, Justification: "reviewed and fine"})
	require.NoError(t, err)
	require.NotNil(t, res.Notification)
	nid := res.Notification.ID

	assert.ErrorIs(t, e.moderation.MarkNotificationRead(ctx, other, nid), repository.ErrForbidden)
	assert.ErrorIs(t, e.moderation.MarkNotificationRead(ctx, seller, 1<<40), repository.ErrNotFound)
	require.NoError(t, e.moderation.MarkNotificationRead(ctx, seller, nid))

	unread, total, err := e.moderation.ListNotifications(ctx, seller, true, repository.Page{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, unread)

	all, total, err := e.moderation.ListNotifications(ctx, seller, false, repository.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.True(t, all[0].IsRead)
}

func TestReportCreate(t *testing.T) {
	e := newEnv(t)
	seller := testhelper.SeedSeller(t, e.db)
	svc := testhelper.SeedService(t, e.db, seller)

	rep, err := e.reports.Create(context.Background(), svc, ReportInput{ReporterEmail: " Bob@Example.com", Reason: "the listing is a scam"})
	require.NoError(t, err)
	assert.Equal(t, model.ReportOpen, rep.Status)
	assert.Equal(t, "bob@example.com", rep.ReporterEmail)

	_, err = e.reports.Create(context.Background(), 1<<40, ReportInput{ReporterEmail: "bob@example.com", Reason: "the listing is a scam"})
	assert.ErrorIs(t, err, repository.ErrServiceNotFound)

	_, err = e.reports.Create(context.Background(), svc, ReportInput{ReporterEmail: "bob", Reason: "short"})
	var verr *repository.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 2)
}

func TestListSearchTreatsWildcardsLiterally(t *testing.T) {
	e := newEnv(t)
	seller := testhelper.SeedSeller(t, e.db)
	svc := testhelper.SeedService(t, e.db, seller)
	for _, name := range []string{"ann_lee", "annxlee"} {
		_, err := e.db.Exec(
			`INSERT INTO contact_requests (service_id, client_name, client_email, task_description, status) VALUES (?, ?, ?, ?, 'NEW')`,
			svc, name, name+"@example.com", "paint the fence")
		require.NoError(t, err)
	}

	list, err := e.contacts.List(context.Background(), repository.ContactRequestFilter{SellerID: seller, Search: "N_L"})
	require.NoError(t, err)
	require.EqualValues(t, 1, list.Total)
	assert.Equal(t, "ann_lee", list.Items[0].ClientName)
}

func TestRedemptionTouchesUpdatedAt(t *testing.T) {
	e := newEnv(t)
	seller := testhelper.SeedSeller(t, e.db)
	svc := testhelper.SeedService(t, e.db, seller)
	tok := newToken(t)
	id := testhelper.SeedCompletedWithToken(t, e.db, svc, tok, time.Now().Add(time.Hour))
	_, err := e.db.Exec(`UPDATE contact_requests SET updated_at = '2020-01-01 00:00:00' WHERE id = ?`, id)
	require.NoError(t, err)

	_, err = e.ratings.CreateFromToken(context.Background(), RatingInput{Token: tok, Score: 4})
	require.NoError(t, err)

	assert.Zero(t, testhelper.Count(t, e.db,
		`SELECT COUNT(*) FROM contact_requests WHERE id = ? AND updated_at < '2021-01-01'`, id))
}
