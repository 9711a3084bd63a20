package domain

// TokenPair holds the credential pair issued on login and rotated on refresh.
// The access token is short-lived and attached to every authenticated call;
// the refresh token is long-lived and only ever sent to the refresh endpoint.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// User is the profile returned by GET /auth/profile.
type User struct {
	UserID           int64  `json:"user_id"`
	Email            string `json:"email"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Role             string `json:"role"`
	ProficiencyLevel string `json:"proficiency_level,omitempty"`
	LearningGoals    string `json:"learning_goals,omitempty"`
	IsActive         bool   `json:"is_active"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// AuthResponse is the login payload: the token pair plus basic identity.
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       int64  `json:"user_id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
}

// RegisterResponse is returned by POST /auth/register.
type RegisterResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"user_id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

// CourseCreator is the nested author object on a course.
type CourseCreator struct {
	UserID    int64  `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Course as returned by the courses endpoints.
type Course struct {
	ID                int64         `json:"id"`
	Title             string        `json:"title"`
	Description       string        `json:"description"`
	Difficulty        string        `json:"difficulty"`
	Category          string        `json:"category"`
	EstimatedDuration int           `json:"estimated_duration"`
	CourseImageURL    string        `json:"course_image_url"`
	IsPublished       bool          `json:"is_published"`
	EnrollmentCount   int           `json:"enrollment_count"`
	Creator           CourseCreator `json:"creator"`
	CreatedAt         string        `json:"created_at"`
	UpdatedAt         string        `json:"updated_at"`
}

// CourseSummary is the trimmed course embedded in an enrollment.
type CourseSummary struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Enrollment links the current user to a course.
type Enrollment struct {
	EnrollmentID   int64         `json:"enrollment_id"`
	UserID         int64         `json:"user_id"`
	CourseID       int64         `json:"course_id"`
	EnrollmentDate string        `json:"enrollment_date"`
	Status         string        `json:"status"`
	Course         CourseSummary `json:"course"`
}

// CourseMetaInfo lists the valid filter values for the course catalog.
type CourseMetaInfo struct {
	Categories   []string `json:"categories"`
	Difficulties []string `json:"difficulties"`
}

// CourseContent is a single content item (text, video, audio, ...) in a course.
type CourseContent struct {
	ID          int64  `json:"id"`
	CourseID    int64  `json:"course_id"`
	Title       string `json:"title"`
	ContentType string `json:"content_type"`
	ContentURL  string `json:"content_url"`
	ContentText string `json:"content_text"`
	OrderIndex  int    `json:"order_index"`
}

// Exercise types the practice loop renders specially; other types are shown
// as-is and answered free-form.
const (
	ExerciseMultipleChoice  = "multiple_choice"
	ExerciseFillInTheBlanks = "fill_in_the_blanks"
)

// Exercise is immutable for the duration of a practice session once fetched.
// Options is the label->text map for multiple choice, nil otherwise.
// TimeLimit is descriptive server metadata and is not enforced client-side.
type Exercise struct {
	ExerciseID      int64             `json:"exercise_id"`
	CourseID        int64             `json:"course_id"`
	Title           string            `json:"title"`
	ExerciseType    string            `json:"exercise_type"`
	QuestionText    string            `json:"question_text"`
	AudioURL        string            `json:"audio_url,omitempty"`
	Options         map[string]string `json:"options"`
	DifficultyLevel string            `json:"difficulty_level"`
	Points          int               `json:"points"`
	TimeLimit       int               `json:"time_limit,omitempty"`
	OrderIndex      int               `json:"order_index"`
	IsActive        bool              `json:"is_active"`
}

// Attempt is the server-graded outcome of one submission.
type Attempt struct {
	AttemptID     int64  `json:"attempt_id"`
	UserID        int64  `json:"user_id"`
	ExerciseID    int64  `json:"exercise_id"`
	UserAnswer    string `json:"user_answer"`
	IsCorrect     bool   `json:"is_correct"`
	ScoreEarned   int    `json:"score_earned"`
	TimeTaken     int    `json:"time_taken"`
	AttemptedAt   string `json:"attempted_at"`
	FeedbackGiven string `json:"feedback_given"`
}
