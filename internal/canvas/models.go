package canvas

import "encoding/json"

// Enrollment is a Canvas enrollment with the enrolled user embedded.
type Enrollment struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`
	User   struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		LoginID string `json:"login_id"`
	} `json:"user"`
}

// Student is a student enrolled in a course.
type Student struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	LoginID string `json:"login_id"`
}

// Quiz is a classic Canvas quiz.
type Quiz struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	PointsPossible *float64 `json:"points_possible"`
	QuestionCount  int      `json:"question_count"`
	DueAt          *string  `json:"due_at"`
	Published      bool     `json:"published"`
}

// QuizSubmission is a student's submission of a quiz.
type QuizSubmission struct {
	ID     int64    `json:"id"`
	UserID int64    `json:"user_id"`
	Score  *float64 `json:"score"`
}

type quizSubmissionsResponse struct {
	QuizSubmissions []QuizSubmission `json:"quiz_submissions"`
}

// QuizGrades is a quiz with the grade of every submission.
type QuizGrades struct {
	QuizInfo Quiz    `json:"quiz_info"`
	Grades   []Grade `json:"grades"`
}

// Grade is one submission joined with its student.
type Grade struct {
	UserID         int64    `json:"user_id"`
	Score          *float64 `json:"score"`
	PointsPossible *float64 `json:"points_possible"`
	Percentage     *string  `json:"percentage"` // 2 decimal places, null without points possible
	Name           string   `json:"name"`
	LoginID        string   `json:"login_id"`
}

type fileResource struct {
	ID          int64   `json:"id"`
	DisplayName string  `json:"display_name"`
	Filename    string  `json:"filename"`
	ContentType string  `json:"content-type"`
	Size        int64   `json:"size"`
	URL         string  `json:"url"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	FolderID    int64   `json:"folder_id"`
	Locked      bool    `json:"locked"`
	Hidden      bool    `json:"hidden"`
	PreviewURL  *string `json:"preview_url"`
}

// File is a file uploaded to a course.
type File struct {
	ID          int64   `json:"id"`
	DisplayName string  `json:"display_name"`
	Filename    string  `json:"filename"`
	ContentType string  `json:"content_type"`
	Size        int64   `json:"size"`
	URL         string  `json:"url"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	FolderID    int64   `json:"folder_id"`
	Locked      bool    `json:"locked"`
	Hidden      bool    `json:"hidden"`
	PreviewURL  *string `json:"preview_url"`
}

// Folder is a folder of a course.
type Folder struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	FullName       string `json:"full_name"`
	ParentFolderID *int64 `json:"parent_folder_id"`
	FilesCount     int    `json:"files_count"`
	FoldersCount   int    `json:"folders_count"`
	CreatedAt      string `json:"created_at"`
}

// errorResponse is the error body of the Canvas API.
type errorResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
	Message string `json:"message"`
}

func (e errorResponse) message() string {
	for _, item := range e.Errors {
		if item.Message != "" {
			return item.Message
		}
	}

	return e.Message
}

// Raw is an upstream object passed through unchanged.
type Raw = json.RawMessage
