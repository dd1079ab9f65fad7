package complaint_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"ouvidoria/backend/internal/complaint"
	"ouvidoria/backend/internal/config"
	"ouvidoria/backend/internal/eligibility"
	"ouvidoria/backend/internal/metrics"
	"ouvidoria/backend/internal/models"
	"ouvidoria/backend/internal/storage"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validInput() models.RegistrationInput {
	return models.RegistrationInput{
		FilerName:    "Maria",
		NationalID:   "123.456.789-09",
		EnrollmentID: "2024-0001",
		Category:     "infraestrutura",
		Description:  "lâmpada queimada",
	}
}

// newFileBackedService wires the registry to a real snapshot file so the
// properties below exercise the full write path.
func newFileBackedService(t *testing.T, eligible ...string) (*complaint.Service, *recordingDispatcher) {
	t.Helper()
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "complaints.json"), quietLogger())
	require.NoError(t, err)
	d := &recordingDispatcher{}
	svc := complaint.NewService(store, eligibility.NewStatic(eligible...),
		complaint.WithLogger(quietLogger()),
		complaint.WithNotifier(d),
	)
	return svc, d
}

func TestRegister_NormalizesAndStoresPendingComplaint(t *testing.T) {
	// Arrange
	svc, d := newFileBackedService(t, "20240001")
	ctx := context.Background()

	// Act
	p, err := svc.Register(ctx, models.RegistrationInput{
		NationalID:   "123.456.789-09",
		EnrollmentID: "2024-0001",
		Category:     "infrastructure",
		Description:  "broken light",
	})

	// Assert
	require.NoError(t, err)
	require.NotEmpty(t, p)

	c, err := svc.GetByProtocol(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "12345678909", c.NationalID)
	assert.Equal(t, "20240001", c.EnrollmentID)
	assert.Equal(t, models.StatusPending, c.Status)
	assert.Nil(t, c.Response)
	assert.Equal(t, config.AnonymousFilerName, c.FilerName)
	assert.Equal(t, [][2]string{{p, "infrastructure"}}, d.Calls())
}

func TestRegister_ValidationOrder(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(in *models.RegistrationInput)
		want  error
		field string
	}{
		{"bad national id wins over everything", func(in *models.RegistrationInput) {
			in.NationalID = "123"
			in.EnrollmentID = "1"
			in.Category = ""
		}, complaint.ErrInvalidNationalID, "national_id"},
		{"bad enrollment id wins over eligibility", func(in *models.RegistrationInput) {
			in.EnrollmentID = "2024-00011"
			in.Description = ""
		}, complaint.ErrInvalidEnrollmentID, "enrollment_id"},
		{"ineligible wins over missing fields", func(in *models.RegistrationInput) {
			in.EnrollmentID = "99999999"
			in.Category = "  "
		}, complaint.ErrEnrollmentNotEligible, "enrollment_id"},
		{"missing category", func(in *models.RegistrationInput) {
			in.Category = "  "
		}, complaint.ErrMissingRequiredField, "category"},
		{"missing description", func(in *models.RegistrationInput) {
			in.Description = ""
		}, complaint.ErrMissingRequiredField, "description"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storageMock := new(MockStorage)
			svc := complaint.NewService(storageMock, eligibility.NewStatic("20240001"), complaint.WithLogger(quietLogger()))
			in := validInput()
			tt.mod(&in)

			p, err := svc.Register(context.Background(), in)

			assert.Empty(t, p)
			assert.ErrorIs(t, err, tt.want)
			var e *complaint.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.field, e.Field)
			storageMock.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
		})
	}
}

func TestRegister_AnyNationalIDLengthOtherThanElevenFails(t *testing.T) {
	svc, _ := newFileBackedService(t, "20240001")
	for n := 0; n <= 20; n++ {
		if n == config.NationalIDLength {
			continue
		}
		in := validInput()
		in.NationalID = fmt.Sprintf("%0*d", n, 0)
		if n == 0 {
			in.NationalID = ""
		}
		_, err := svc.Register(context.Background(), in)
		assert.ErrorIs(t, err, complaint.ErrInvalidNationalID, "length %d", n)
	}
}

func TestRegister_EligibilityUnavailable(t *testing.T) {
	oracle := new(MockOracle)
	oracle.On("IsEligible", mock.Anything, "20240001").Return(false, assert.AnError)
	svc := complaint.NewService(new(MockStorage), oracle, complaint.WithLogger(quietLogger()))

	_, err := svc.Register(context.Background(), validInput())

	assert.ErrorIs(t, err, complaint.ErrEligibilityUnavailable)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRegister_RetriesOnProtocolCollision(t *testing.T) {
	// Arrange
	storageMock := new(MockStorage)
	storageMock.On("Append", mock.Anything, mock.MatchedBy(func(c *models.Complaint) bool {
		return c.Protocol == "111"
	})).Return(storage.ErrDuplicateProtocol).Once()
	storageMock.On("Append", mock.Anything, mock.MatchedBy(func(c *models.Complaint) bool {
		return c.Protocol == "222"
	})).Return(nil).Once()
	alloc := &scriptedAllocator{protocols: []string{"111", "222"}}
	svc := complaint.NewService(storageMock, eligibility.NewStatic("20240001"),
		complaint.WithLogger(quietLogger()),
		complaint.WithAllocator(alloc),
		complaint.WithClock(func() time.Time { return fixedNow }),
	)

	// Act
	p, err := svc.Register(context.Background(), validInput())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "222", p)
	storageMock.AssertNumberOfCalls(t, "Append", 2)
	stored := storageMock.Calls[1].Arguments.Get(1).(*models.Complaint)
	assert.True(t, stored.CreatedAt.Equal(fixedNow))
	assert.Equal(t, "Maria", stored.FilerName)
}

func TestRegister_ProtocolExhausted(t *testing.T) {
	storageMock := new(MockStorage)
	storageMock.On("Append", mock.Anything, mock.Anything).Return(storage.ErrDuplicateProtocol)
	d := &recordingDispatcher{}
	svc := complaint.NewService(storageMock, eligibility.NewStatic("20240001"),
		complaint.WithLogger(quietLogger()),
		complaint.WithAllocator(&scriptedAllocator{protocols: []string{"1"}}),
		complaint.WithNotifier(d),
	)

	_, err := svc.Register(context.Background(), validInput())

	assert.ErrorIs(t, err, complaint.ErrProtocolExhausted)
	storageMock.AssertNumberOfCalls(t, "Append", config.MaxProtocolAttempts)
	assert.Empty(t, d.Calls())
}

func TestRegister_StoreFailureSurfaces(t *testing.T) {
	storageMock := new(MockStorage)
	storageMock.On("Append", mock.Anything, mock.Anything).Return(storage.ErrUnreadable)
	d := &recordingDispatcher{}
	svc := complaint.NewService(storageMock, eligibility.NewStatic("20240001"),
		complaint.WithLogger(quietLogger()),
		complaint.WithNotifier(d),
	)

	_, err := svc.Register(context.Background(), validInput())

	assert.ErrorIs(t, err, complaint.ErrStore)
	assert.ErrorIs(t, err, storage.ErrUnreadable)
	assert.Empty(t, d.Calls(), "nothing is announced when the write fails")
}

func TestRegister_AllocatorFailure(t *testing.T) {
	svc := complaint.NewService(new(MockStorage), eligibility.NewStatic("20240001"),
		complaint.WithLogger(quietLogger()),
		complaint.WithAllocator(&scriptedAllocator{err: assert.AnError}),
	)

	_, err := svc.Register(context.Background(), validInput())

	assert.ErrorIs(t, err, complaint.ErrStore)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRegister_CountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "c.json"), quietLogger())
	require.NoError(t, err)
	svc := complaint.NewService(store, eligibility.NewStatic("20240001"),
		complaint.WithLogger(quietLogger()),
		complaint.WithMetrics(m),
	)

	_, err = svc.Register(context.Background(), validInput())
	require.NoError(t, err)
	bad := validInput()
	bad.EnrollmentID = "11112222"
	_, _ = svc.Register(context.Background(), bad)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Registered))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejected.WithLabelValues(string(complaint.KindEnrollmentNotEligible))))
}

func TestRegister_ProtocolsAreUnique(t *testing.T) {
	svc, _ := newFileBackedService(t, "20240001")
	seen := make(map[string]bool)

	for i := 0; i < 50; i++ {
		p, err := svc.Register(context.Background(), validInput())
		require.NoError(t, err)
		assert.False(t, seen[p], "protocol %s issued twice", p)
		seen[p] = true
	}
}

func TestRegister_ConcurrentCallsAreAllRetrievable(t *testing.T) {
	svc, _ := newFileBackedService(t, "20240001", "20240002")
	ctx := context.Background()

	var wg sync.WaitGroup
	protocols := make([]string, 20)
	errs := make([]error, 20)
	for i := range protocols {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := validInput()
			in.NationalID = fmt.Sprintf("%011d", i)
			if i%2 == 1 {
				in.EnrollmentID = "20240002"
			}
			protocols[i], errs[i] = svc.Register(ctx, in)
		}(i)
	}
	wg.Wait()

	for i, p := range protocols {
		require.NoError(t, errs[i])
		c, err := svc.GetByProtocol(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("%011d", i), c.NationalID)
	}
	assert.Len(t, svc.ListAll(ctx), 20)
}

func TestGetByProtocol_NotFound(t *testing.T) {
	storageMock := new(MockStorage)
	storageMock.On("Get", mock.Anything, "123").Return(nil, nil)
	storageMock.On("Get", mock.Anything, "456").Return(nil, storage.ErrUnreadable)
	svc := complaint.NewService(storageMock, eligibility.NewStatic(), complaint.WithLogger(quietLogger()))

	for _, p := range []string{"", "abc", "12a", " 123 ", "456"} {
		c, err := svc.GetByProtocol(context.Background(), p)
		assert.Nil(t, c)
		assert.ErrorIs(t, err, complaint.ErrNotFound, "protocol %q", p)
	}
	storageMock.AssertNumberOfCalls(t, "Get", 2)
}

func TestFindByNationalID_ReturnsOnlyMatchingRecords(t *testing.T) {
	svc, _ := newFileBackedService(t, "20240001")
	ctx := context.Background()

	first, err := svc.Register(ctx, validInput())
	require.NoError(t, err)
	second, err := svc.Register(ctx, validInput())
	require.NoError(t, err)
	other := validInput()
	other.NationalID = "98765432100"
	_, err = svc.Register(ctx, other)
	require.NoError(t, err)

	got, err := svc.FindByNationalID(ctx, "12345678909")

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.ElementsMatch(t, []string{first, second}, []string{got[0].Protocol, got[1].Protocol})
}

func TestFindBy_ValidationAndDegradation(t *testing.T) {
	storageMock := new(MockStorage)
	storageMock.On("FindByNationalID", mock.Anything, "12345678909").Return(nil, storage.ErrUnreadable)
	storageMock.On("FindByEnrollmentID", mock.Anything, "20240001").Return(nil, nil)
	svc := complaint.NewService(storageMock, eligibility.NewStatic(), complaint.WithLogger(quietLogger()))
	ctx := context.Background()

	got, err := svc.FindByNationalID(ctx, "123")
	assert.ErrorIs(t, err, complaint.ErrInvalidNationalID)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = svc.FindByEnrollmentID(ctx, "2024")
	assert.ErrorIs(t, err, complaint.ErrInvalidEnrollmentID)
	assert.Empty(t, got)

	got, err = svc.FindByNationalID(ctx, "123.456.789-09")
	assert.NoError(t, err, "read failures degrade to an empty result")
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = svc.FindByEnrollmentID(ctx, "2024-0001")
	assert.NoError(t, err)
	assert.NotNil(t, got)
}

func TestListAll(t *testing.T) {
	storageMock := new(MockStorage)
	want := []models.Complaint{{Protocol: "2"}, {Protocol: "1"}}
	storageMock.On("List", mock.Anything).Return(want, nil).Once()
	storageMock.On("List", mock.Anything).Return(nil, storage.ErrUnreadable).Once()
	svc := complaint.NewService(storageMock, eligibility.NewStatic(), complaint.WithLogger(quietLogger()))

	assert.Equal(t, want, svc.ListAll(context.Background()))
	got := svc.ListAll(context.Background())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAttachResponse_TransitionsToResponded(t *testing.T) {
	svc, _ := newFileBackedService(t, "20240001")
	ctx := context.Background()
	p, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, svc.AttachResponse(ctx, p, "  resolvido  "))

	c, err := svc.GetByProtocol(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResponded, c.Status)
	require.NotNil(t, c.Response)
	assert.Equal(t, "resolvido", *c.Response)
	assert.NotNil(t, c.RespondedAt)
}

func TestAttachResponse_UnknownProtocolLeavesStoreUnchanged(t *testing.T) {
	svc, _ := newFileBackedService(t, "20240001")
	ctx := context.Background()
	p, err := svc.Register(ctx, validInput())
	require.NoError(t, err)
	before := svc.ListAll(ctx)

	err = svc.AttachResponse(ctx, "1", "texto")

	assert.ErrorIs(t, err, complaint.ErrNotFound)
	assert.Equal(t, before, svc.ListAll(ctx))
	c, err := svc.GetByProtocol(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, c.Status)
}

func TestAttachResponse_RequiredFields(t *testing.T) {
	storageMock := new(MockStorage)
	svc := complaint.NewService(storageMock, eligibility.NewStatic(), complaint.WithLogger(quietLogger()))

	err := svc.AttachResponse(context.Background(), " ", "texto")
	assert.ErrorIs(t, err, complaint.ErrMissingRequiredField)
	err = svc.AttachResponse(context.Background(), "123", "")
	assert.ErrorIs(t, err, complaint.ErrMissingRequiredField)
	err = svc.AttachResponse(context.Background(), "abc", "texto")
	assert.ErrorIs(t, err, complaint.ErrNotFound)

	storageMock.AssertNotCalled(t, "UpdateResponse", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAttachResponse_OverwriteIsLogged(t *testing.T) {
	// Arrange
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	answered := &models.Complaint{Protocol: "123", Status: models.StatusPending}
	answered.Respond("primeira", fixedNow)
	storageMock := new(MockStorage)
	storageMock.On("Get", mock.Anything, "123").Return(answered, nil)
	storageMock.On("UpdateResponse", mock.Anything, "123", "segunda", fixedNow).Return(nil)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := complaint.NewService(storageMock, eligibility.NewStatic(),
		complaint.WithLogger(logger),
		complaint.WithMetrics(m),
		complaint.WithClock(func() time.Time { return fixedNow }),
	)

	// Act
	err := svc.AttachResponse(context.Background(), "123", "segunda")

	// Assert
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "overwriting existing complaint response")
	assert.Contains(t, logs.String(), "protocol=123")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Responded))
	storageMock.AssertExpectations(t)
}

func TestAttachResponse_StoreFailure(t *testing.T) {
	storageMock := new(MockStorage)
	storageMock.On("Get", mock.Anything, "123").Return(nil, storage.ErrUnreadable)
	storageMock.On("UpdateResponse", mock.Anything, "123", "texto", mock.Anything).Return(storage.ErrUnreadable)
	svc := complaint.NewService(storageMock, eligibility.NewStatic(), complaint.WithLogger(quietLogger()))

	err := svc.AttachResponse(context.Background(), "123", "texto")

	assert.ErrorIs(t, err, complaint.ErrStore)
	assert.ErrorIs(t, err, storage.ErrUnreadable)
}
