package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	jwttoken "hostelgate/internal/jwt_token"
	"hostelgate/internal/resident/handler/mocks"
	"hostelgate/internal/resident/models"
	id "hostelgate/pkg/domain"
	dErrors "hostelgate/pkg/domain-errors"
	"hostelgate/pkg/testutil"
)

type noRevocations struct{}

func (noRevocations) IsTokenRevoked(context.Context, string) (bool, error) { return false, nil }

type ResidentHandlerSuite struct {
	suite.Suite
	mockService *mocks.MockService
	router      chi.Router
	adminToken  string
	staffToken  string
}

func TestResidentHandlerSuite(t *testing.T) {
	suite.Run(t, new(ResidentHandlerSuite))
}

func (s *ResidentHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.mockService = mocks.NewMockService(ctrl)
	jwt := jwttoken.NewJWTService("test-key", "hostelgate")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(s.mockService, logger, jwttoken.NewJWTServiceAdapter(jwt), noRevocations{})
	s.router = chi.NewRouter()
	h.Register(s.router)

	var err error
	s.adminToken, _, err = jwt.GenerateAccessToken("admin", "admin", 0, time.Hour)
	s.Require().NoError(err)
	s.staffToken, _, err = jwt.GenerateAccessToken("north", "watchman", 0, time.Hour)
	s.Require().NoError(err)
}

func (s *ResidentHandlerSuite) do(method, path string, body any) *http.Request {
	return testutil.WithBearer(testutil.NewJSONRequest(s.T(), method, path, body), s.adminToken)
}

func (s *ResidentHandlerSuite) TestCreate() {
	s.Run("created resident is returned", func() {
		s.mockService.EXPECT().
			Create(gomock.Any(), &models.CreateResidentRequest{Name: "Asha", RegisterNo: "REG007", RoomNo: "B-12"}).
			Return(&models.Resident{ID: 7, Name: "Asha", RegisterNo: "REG007", CurrentStatus: models.StatusInFacility}, nil)

		rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/residents",
			map[string]string{"name": "Asha", "register_no": "REG007", "room_no": "B-12"}))

		s.Equal(http.StatusCreated, rr.Code)
		resp := testutil.UnmarshalResponse[residentResponse](s.T(), rr)
		s.Equal(id.ResidentID(7), resp.Resident.ID)
		s.Equal(models.StatusInFacility, resp.Resident.CurrentStatus)
	})

	s.Run("duplicate register number is a conflict", func() {
		s.mockService.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "register number already exists"))

		rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/residents",
			map[string]string{"name": "Asha", "register_no": "REG007"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("watchman cannot manage residents", func() {
		req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/residents",
			map[string]string{"name": "Asha", "register_no": "REG007"}), s.staffToken)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})
}

func (s *ResidentHandlerSuite) TestListAndGet() {
	s.Run("empty directory renders an empty list", func() {
		s.mockService.EXPECT().List(gomock.Any()).Return(nil, nil)

		rr := testutil.DoRequest(s.router, s.do(http.MethodGet, "/residents", nil))
		s.Equal(http.StatusOK, rr.Code)
		s.JSONEq(`{"residents":[]}`, rr.Body.String())
	})

	s.Run("unknown resident is not found", func() {
		s.mockService.EXPECT().Get(gomock.Any(), id.ResidentID(9)).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "resident not found"))

		rr := testutil.DoRequest(s.router, s.do(http.MethodGet, "/residents/9", nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("non-numeric id is a bad request", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodGet, "/residents/abc", nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *ResidentHandlerSuite) TestUpdateAndDelete() {
	s.Run("partial update passes only the set fields", func() {
		s.mockService.EXPECT().Update(gomock.Any(), id.ResidentID(7), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ id.ResidentID, req *models.UpdateResidentRequest) (*models.Resident, error) {
				s.Nil(req.Name)
				s.Require().NotNil(req.RoomNo)
				s.Equal("C-01", *req.RoomNo)
				return &models.Resident{ID: 7, RoomNo: "C-01"}, nil
			})

		rr := testutil.DoRequest(s.router, s.do(http.MethodPut, "/residents/7", map[string]string{"room_no": "C-01"}))
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("delete", func() {
		s.mockService.EXPECT().Delete(gomock.Any(), id.ResidentID(7)).Return(nil)

		rr := testutil.DoRequest(s.router, s.do(http.MethodDelete, "/residents/7", nil))
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("store outage is unavailable", func() {
		s.mockService.EXPECT().Delete(gomock.Any(), id.ResidentID(7)).
			Return(dErrors.New(dErrors.CodeUnavailable, "failed to load resident"))

		rr := testutil.DoRequest(s.router, s.do(http.MethodDelete, "/residents/7", nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, "unavailable")
	})
}
