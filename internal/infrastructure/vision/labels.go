package vision

import (
	"bufio"
	"os"
	"strings"

	apperrors "oral-scan/internal/platform/errors"
)

// LoadLabels читает имена классов модели, по одному на строку.
func LoadLabels(path string) ([]string, error) {
	const op = "labels.load"

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfig, op, "open labels file", err)
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfig, op, "read labels file", err)
	}
	if len(labels) == 0 {
		return nil, apperrors.New(apperrors.KindConfig, op, "labels file is empty")
	}
	return labels, nil
}
