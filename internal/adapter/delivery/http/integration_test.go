//go:build integration

package http_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/go-chi/httplog/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/bookmarks/internal/adapter/repository/postgres"
	"github.com/vadimbarashkov/bookmarks/internal/auth"
	"github.com/vadimbarashkov/bookmarks/internal/testutil"
	"github.com/vadimbarashkov/bookmarks/internal/usecase"

	delivery "github.com/vadimbarashkov/bookmarks/internal/adapter/delivery/http"
)

const (
	jwtSecret = "integration-secret"
	path      = "/api/v1/bookmarks"
)

type APITestSuite struct {
	suite.Suite
	db     *sqlx.DB
	server *httptest.Server
	e      *httpexpect.Expect
	alice  string
	bob    string
}

func (suite *APITestSuite) SetupSuite() {
	suite.db = testutil.NewPostgres(suite.T())

	repo := postgres.NewBookmarkRepository(suite.db)
	uc := usecase.NewBookmarkUseCase(3, repo)
	identity := auth.NewJWTVerifier(jwtSecret, "")
	logger := httplog.NewLogger("", httplog.Options{Writer: io.Discard})

	router := delivery.NewRouter(logger, identity, uc, delivery.Pagination{DefaultPerPage: 5, MaxPerPage: 100})
	suite.server = httptest.NewServer(router)
	suite.T().Cleanup(suite.server.Close)

	suite.e = httpexpect.WithConfig(httpexpect.Config{
		BaseURL:  suite.server.URL,
		Reporter: httpexpect.NewAssertReporter(suite.T()),
		Client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	})

	suite.alice = suite.token("alice")
	suite.bob = suite.token("bob")
}

func (suite *APITestSuite) SetupSubTest() {
	testutil.Truncate(suite.T(), suite.db)
}

func (suite *APITestSuite) token(subject string) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(jwtSecret))
	if err != nil {
		suite.T().Fatalf("Failed to sign token: %v", err)
	}
	return token
}

func (suite *APITestSuite) as(req *httpexpect.Request, token string) *httpexpect.Request {
	return req.WithHeader("Authorization", "Bearer "+token)
}

func (suite *APITestSuite) create(token, url, body string) int64 {
	id := suite.as(suite.e.POST(path), token).
		WithJSON(map[string]string{"url": url, "body": body}).
		Expect().
		Status(http.StatusCreated).
		JSON().Object().
		Value("id").Number().Raw()

	return int64(id)
}

func (suite *APITestSuite) countBookmarks() int {
	var n int
	if err := suite.db.Get(&n, `SELECT COUNT(*) FROM bookmarks`); err != nil {
		suite.T().Fatalf("Failed to count bookmarks: %v", err)
	}
	return n
}

func (suite *APITestSuite) TestCreate() {
	suite.Run("echoes url and body", func() {
		resp := suite.as(suite.e.POST(path), suite.alice).
			WithJSON(map[string]string{"url": "https://example.com/a?b=c", "body": "read later"}).
			Expect().
			Status(http.StatusCreated).
			JSON().Object()

		resp.HasValue("url", "https://example.com/a?b=c")
		resp.HasValue("body", "read later")
		resp.HasValue("visits", 0)
		resp.Value("short_url").String().Length().IsEqual(3)
	})

	suite.Run("duplicate url across owners", func() {
		suite.create(suite.alice, "https://example.com", "")

		suite.as(suite.e.POST(path), suite.bob).
			WithJSON(map[string]string{"url": "https://example.com"}).
			Expect().
			Status(http.StatusConflict)

		suite.Equal(1, suite.countBookmarks())
	})

	suite.Run("malformed url is not persisted", func() {
		for _, u := range []string{"not-a-url", "javascript:alert(1)", "mailto:a@b.c"} {
			suite.as(suite.e.POST(path), suite.alice).
				WithJSON(map[string]string{"url": u}).
				Expect().
				Status(http.StatusBadRequest)
		}

		suite.Zero(suite.countBookmarks())
	})
}

func (suite *APITestSuite) TestList() {
	suite.Run("three pages of five", func() {
		for i := 1; i <= 12; i++ {
			suite.create(suite.alice, fmt.Sprintf("https://example.com/%d", i), "")
		}
		suite.create(suite.bob, "https://bob.example.com", "")

		first := suite.as(suite.e.GET(path), suite.alice).
			WithQuery("per_page", 5).
			Expect().
			Status(http.StatusOK).
			JSON().Object()

		first.Value("data").Array().Length().IsEqual(5)
		meta := first.Value("meta").Object()
		meta.HasValue("pages", 3)
		meta.HasValue("total_count", 12)
		meta.HasValue("has_next_page", true)
		meta.HasValue("has_previous_page", false)

		last := suite.as(suite.e.GET(path), suite.alice).
			WithQuery("page", 3).
			WithQuery("per_page", 5).
			Expect().
			Status(http.StatusOK).
			JSON().Object()

		last.Value("data").Array().Length().IsEqual(2)
		last.Value("meta").Object().HasValue("has_next_page", false)
	})

	suite.Run("empty listing", func() {
		resp := suite.as(suite.e.GET(path), suite.bob).
			Expect().
			Status(http.StatusOK).
			JSON().Object()

		resp.Value("data").Array().IsEmpty()
		resp.Value("meta").Object().HasValue("total_count", 0)
	})
}

func (suite *APITestSuite) TestOwnership() {
	suite.Run("cross owner access is not found", func() {
		id := suite.create(suite.alice, "https://example.com", "note")
		item := fmt.Sprintf("%s/%d", path, id)

		suite.as(suite.e.GET(item), suite.bob).Expect().Status(http.StatusNotFound)
		suite.as(suite.e.PUT(item), suite.bob).
			WithJSON(map[string]string{"url": "https://evil.example.com"}).
			Expect().
			Status(http.StatusNotFound)
		suite.as(suite.e.PATCH(item), suite.bob).
			WithJSON(map[string]string{"url": "not-a-url"}).
			Expect().
			Status(http.StatusNotFound)
		suite.as(suite.e.DELETE(item), suite.bob).Expect().Status(http.StatusNotFound)

		resp := suite.as(suite.e.GET(item), suite.alice).
			Expect().
			Status(http.StatusOK).
			JSON().Object()

		resp.HasValue("url", "https://example.com")
		resp.HasValue("body", "note")
	})
}

func (suite *APITestSuite) TestUpdate() {
	suite.Run("url of another owner is accepted", func() {
		suite.create(suite.bob, "https://taken.example.com", "")
		id := suite.create(suite.alice, "https://mine.example.com", "note")

		resp := suite.as(suite.e.PATCH(fmt.Sprintf("%s/%d", path, id)), suite.alice).
			WithJSON(map[string]string{"url": "https://taken.example.com"}).
			Expect().
			Status(http.StatusOK).
			JSON().Object()

		resp.HasValue("url", "https://taken.example.com")
		resp.HasValue("body", "")
	})
}

func (suite *APITestSuite) TestDelete() {
	suite.Run("twice", func() {
		id := suite.create(suite.alice, "https://example.com", "")
		item := fmt.Sprintf("%s/%d", path, id)

		suite.as(suite.e.DELETE(item), suite.alice).Expect().Status(http.StatusNoContent).NoContent()
		suite.as(suite.e.DELETE(item), suite.alice).Expect().Status(http.StatusNotFound)
	})
}

func (suite *APITestSuite) TestIdempotentReads() {
	suite.Run("repeated get", func() {
		id := suite.create(suite.alice, "https://example.com", "")
		item := fmt.Sprintf("%s/%d", path, id)

		first := suite.as(suite.e.GET(item), suite.alice).Expect().Status(http.StatusOK).JSON().Object().Raw()
		suite.as(suite.e.GET(item), suite.alice).Expect().Status(http.StatusOK).JSON().Object().IsEqual(first)
	})
}

func (suite *APITestSuite) TestRedirect() {
	suite.Run("counts visits", func() {
		shortURL := suite.as(suite.e.POST(path), suite.alice).
			WithJSON(map[string]string{"url": "https://example.com"}).
			Expect().
			Status(http.StatusCreated).
			JSON().Object().
			Value("short_url").String().Raw()

		suite.e.GET("/"+shortURL).
			Expect().
			Status(http.StatusFound).
			Header("Location").IsEqual("https://example.com")

		suite.as(suite.e.GET(path+"/stats"), suite.alice).
			Expect().
			Status(http.StatusOK).
			JSON().Object().
			Value("data").Array().Value(0).Object().
			HasValue("visits", 1)
	})
}

func TestAPI(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
