package weather

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/boat-builder/weatherpod"
)

// ToolName is the name the model calls the lookup by.
const ToolName = "get_weather"

const toolDescription = "Retrieves the current weather report for a specified city. " +
	"Returns a status of 'success' with a 'report', or 'error' with an 'error_message'."

// Input is the get_weather argument object.
type Input struct {
	City string `json:"city" jsonschema_description:"The name of the city, for example London."`
}

// NewTool exposes table as the get_weather tool. Each call writes a trace line
// to w when w is not nil. Calls may run concurrently; writes to w do not.
func NewTool(table Table, w io.Writer) (*weatherpod.FunctionTool[Input, Result], error) {
	var mu sync.Mutex
	return weatherpod.NewFunctionTool(ToolName, toolDescription,
		func(_ context.Context, in Input) (Result, error) {
			if w != nil {
				mu.Lock()
				fmt.Fprintf(w, "--- Tool: %s called for city: %s ---\n", ToolName, in.City)
				mu.Unlock()
			}
			return table.Lookup(in.City), nil
		},
		weatherpod.WithStatusMessage("Looking up the weather"),
	)
}
