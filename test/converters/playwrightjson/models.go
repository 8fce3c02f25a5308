package playwrightjson

// Report is the document written by Playwright's json reporter.
type Report struct {
	Config Config  `json:"config"`
	Suites []Suite `json:"suites"`
}

// Config ...
type Config struct {
	RootDir  string    `json:"rootDir"`
	Projects []Project `json:"projects"`
}

// Project ...
type Project struct {
	Name string `json:"name"`
}

// Suite is a file or a describe block.
type Suite struct {
	Title  string  `json:"title"`
	File   string  `json:"file"`
	Line   int     `json:"line"`
	Specs  []Spec  `json:"specs"`
	Suites []Suite `json:"suites"`
}

// Spec is a test declaration, run once per project.
type Spec struct {
	Title string `json:"title"`
	File  string `json:"file"`
	Line  int    `json:"line"`
	Tests []Test `json:"tests"`
}

// Test is a spec run in a given project.
type Test struct {
	ProjectName string   `json:"projectName"`
	Results     []Result `json:"results"`
}

// Result is a single attempt.
type Result struct {
	Retry    int          `json:"retry"`
	Status   string       `json:"status"`
	Duration float64      `json:"duration"`
	Error    *Error       `json:"error,omitempty"`
	Errors   []Error      `json:"errors,omitempty"`
	Stdout   []OutputItem `json:"stdout"`
	Stderr   []OutputItem `json:"stderr"`
}

// Error ...
type Error struct {
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

// OutputItem is either text or base64 encoded binary output.
type OutputItem struct {
	Text   string `json:"text,omitempty"`
	Buffer string `json:"buffer,omitempty"`
}
