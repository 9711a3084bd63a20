package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"lingua-client/internal/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type submitRequest struct {
	Answer    string `json:"answer"`
	TimeTaken int    `json:"time_taken,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Login exchanges credentials for a token pair and persists it.
func (c *Client) Login(ctx context.Context, email, password string) (domain.AuthResponse, error) {
	var resp domain.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return domain.AuthResponse{}, err
	}
	pair := domain.TokenPair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}
	if err := c.tokens.Save(ctx, pair); err != nil {
		return domain.AuthResponse{}, fmt.Errorf("store credentials: %w", err)
	}
	return resp, nil
}

// Register creates an account. The server does not issue tokens here;
// callers follow up with Login.
func (c *Client) Register(ctx context.Context, email, password, firstName, lastName string) (domain.RegisterResponse, error) {
	var resp domain.RegisterResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", registerRequest{
		Email:     email,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
	}, &resp)
	return resp, err
}

// Logout invalidates the session server-side and always clears local
// credentials, even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	if clearErr := c.tokens.Clear(ctx); clearErr != nil && err == nil {
		err = clearErr
	}
	return err
}

// Profile fetches the current user.
func (c *Client) Profile(ctx context.Context) (domain.User, error) {
	var user domain.User
	err := c.do(ctx, http.MethodGet, "/auth/profile", nil, &user)
	return user, err
}

// CourseFilters narrows the course listing.
type CourseFilters struct {
	Search     string
	Difficulty string
	Category   string
}

// Courses lists the catalog, optionally filtered.
func (c *Client) Courses(ctx context.Context, filters CourseFilters) ([]domain.Course, error) {
	query := url.Values{}
	if filters.Search != "" {
		query.Set("search", filters.Search)
	}
	if filters.Difficulty != "" {
		query.Set("difficulty", filters.Difficulty)
	}
	if filters.Category != "" {
		query.Set("category", filters.Category)
	}
	path := "/courses/"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var courses []domain.Course
	err := c.do(ctx, http.MethodGet, path, nil, &courses)
	return courses, err
}

// CourseMeta returns the valid categories and difficulties (public endpoint).
func (c *Client) CourseMeta(ctx context.Context) (domain.CourseMetaInfo, error) {
	var meta domain.CourseMetaInfo
	err := c.do(ctx, http.MethodGet, "/courses/meta-info", nil, &meta)
	return meta, err
}

// Course fetches one course by id.
func (c *Client) Course(ctx context.Context, courseID int64) (domain.Course, error) {
	var course domain.Course
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/courses/%d", courseID), nil, &course)
	return course, err
}

// Enroll enrolls the current user in a course.
func (c *Client) Enroll(ctx context.Context, courseID int64) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/courses/%d/enroll", courseID), nil, &resp)
	return resp.Message, err
}

// Unenroll removes the current user's enrollment.
func (c *Client) Unenroll(ctx context.Context, courseID int64) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/courses/%d/enroll", courseID), nil, &resp)
	return resp.Message, err
}

// MyEnrollments lists the current user's enrollments.
func (c *Client) MyEnrollments(ctx context.Context) ([]domain.Enrollment, error) {
	var enrollments []domain.Enrollment
	err := c.do(ctx, http.MethodGet, "/courses/my-enrollments", nil, &enrollments)
	return enrollments, err
}

// CourseContents lists the content items of a course.
func (c *Client) CourseContents(ctx context.Context, courseID int64) ([]domain.CourseContent, error) {
	var contents []domain.CourseContent
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/courses/%d/content", courseID), nil, &contents)
	return contents, err
}

// Exercises returns the ordered exercise list for a course.
func (c *Client) Exercises(ctx context.Context, courseID int64) ([]domain.Exercise, error) {
	var exercises []domain.Exercise
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/courses/%d/exercises", courseID), nil, &exercises)
	return exercises, err
}

// Exercise fetches a single exercise by id.
func (c *Client) Exercise(ctx context.Context, exerciseID int64) (domain.Exercise, error) {
	var exercise domain.Exercise
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/exercises/%d", exerciseID), nil, &exercise)
	return exercise, err
}

// SubmitAttempt sends an answer for grading. timeTaken is in seconds and
// optional (zero omits it).
func (c *Client) SubmitAttempt(ctx context.Context, exerciseID int64, answer string, timeTaken int) (domain.Attempt, error) {
	var attempt domain.Attempt
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/exercises/%d/submit", exerciseID), submitRequest{
		Answer:    answer,
		TimeTaken: timeTaken,
	}, &attempt)
	return attempt, err
}
