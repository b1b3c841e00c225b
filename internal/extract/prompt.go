package extract

import (
	"fmt"

	"github.com/raphaelgruber/sopkb/internal/models"
)

const systemPrompt = `You convert standard operating procedure documents into table rows.

Output format (one row per line, exactly four pipe-separated columns):
System|Process|Instructions|Rationale

Rules:
- System is the application, tool or department the procedure belongs to
- Process is the short name of the task
- Instructions lists the steps in order, separated by the literal marker ` + models.StepDelimiter + `
- Rationale is why the procedure exists; leave it empty if the document does not say
- Never use the pipe character inside a column
- Do not output a header row, explanations, numbering or code fences
- Output nothing if the text contains no procedures`

func userPrompt(window string, index, total int) string {
	return fmt.Sprintf(`Document excerpt (part %d of %d):
%s

Rows:`, index+1, total, window)
}
