package access

// Action is something a lesson offers to the viewer.
type Action string

const (
	ActionWatchVideo  Action = "watchVideo"
	ActionReadFile    Action = "readFile"
	ActionTakeQuiz    Action = "takeQuiz"
	ActionUploadVideo Action = "uploadVideo"
	ActionUploadFile  Action = "uploadFile"
	ActionManageQuiz  Action = "manageQuiz"
)

// Lesson is the part of a catalog item the resolver needs.
type Lesson struct {
	ID      string
	HasTest bool
}

// ArtifactSummary records which artifacts exist for a lesson.
type ArtifactSummary struct {
	HasVideo      bool
	HasFile       bool
	QuestionCount int
}

// Actions is an ordered set of actions.
type Actions []Action

// Contains reports whether a is present.
func (as Actions) Contains(a Action) bool {
	for _, x := range as {
		if x == a {
			return true
		}
	}
	return false
}

// ResolveVisibleActions lists the lesson actions shown to p, ordered
// video, file, quiz. Students only see actions backed by existing content;
// admins get the authoring actions.
func ResolveVisibleActions(p *Principal, lesson Lesson, artifacts ArtifactSummary) Actions {
	actions := make(Actions, 0, 3)
	if p.IsAdmin() {
		actions = append(actions, ActionUploadVideo, ActionUploadFile)
		if lesson.HasTest {
			actions = append(actions, ActionManageQuiz)
		}
		return actions
	}
	if artifacts.HasVideo {
		actions = append(actions, ActionWatchVideo)
	}
	if artifacts.HasFile {
		actions = append(actions, ActionReadFile)
	}
	if lesson.HasTest && artifacts.QuestionCount > 0 {
		actions = append(actions, ActionTakeQuiz)
	}
	return actions
}
