package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// WriteJson prints the value as a single JSON line on stdout.
func WriteJson(value any) error {
	return WriteJsonTo(os.Stdout, value)
}

func WriteJsonTo(writer io.Writer, value any) error {
	content, err := json.Marshal(value)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(writer, string(content))
	return err
}
