package planner

// Plan is a Planner plan as returned by Microsoft Graph.
type Plan struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Bucket is a Planner bucket.
type Bucket struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	PlanID string `json:"planId"`
}

// Task is a Planner task. ETag is the opaque version token used for
// conditional writes.
type Task struct {
	ID              string `json:"id"`
	PlanID          string `json:"planId"`
	BucketID        string `json:"bucketId"`
	Title           string `json:"title"`
	PercentComplete int    `json:"percentComplete"`
	ETag            string `json:"@odata.etag"`
}

// TaskDetails holds the free-text description of a task.
type TaskDetails struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	ETag        string `json:"@odata.etag"`
}

// TaskPatch is a partial task update. Nil fields are not sent.
type TaskPatch struct {
	Title           *string `json:"title,omitempty"`
	PercentComplete *int    `json:"percentComplete,omitempty"`
}

type listResponse[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink,omitempty"`
}

type apiErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
