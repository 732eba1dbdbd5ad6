package language

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadARPA reads a language model in ARPA format. Log probabilities stay in
// base 10, as written in the file.
func LoadARPA(r io.Reader) (*NGramModel, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	// Skip until \data\ section
	found := false
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "\\data\\" {
			found = true
			break
		}
	}
	if !found {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("missing \\data\\ section")
	}

	// Parse ngram counts
	maxOrder := 0
	declared := make(map[int]int)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "ngram ") {
			parts := strings.SplitN(line[6:], "=", 2)
			if len(parts) != 2 {
				return nil, fmt.Errorf("malformed count line %q", line)
			}
			order, err := strconv.Atoi(strings.TrimSpace(parts[0]))
			if err != nil {
				return nil, fmt.Errorf("parse order in %q: %w", line, err)
			}
			if order < 1 || order > MaxOrder {
				return nil, fmt.Errorf("order %d not supported (max %d)", order, MaxOrder)
			}
			count, err := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err != nil {
				return nil, fmt.Errorf("parse count in %q: %w", line, err)
			}
			declared[order] = count
			if order > maxOrder {
				maxOrder = order
			}
			continue
		}
		break
	}
	if maxOrder == 0 {
		return nil, fmt.Errorf("no ngram counts in \\data\\ section")
	}
	model := NewNGramModel(maxOrder)

	// Parse n-gram sections
	for {
		line := strings.TrimSpace(scanner.Text())

		if line == "\\end\\" {
			break
		}

		if strings.HasPrefix(line, "\\") && strings.HasSuffix(line, "-grams:") {
			orderStr := strings.TrimSuffix(strings.TrimPrefix(line, "\\"), "-grams:")
			order, err := strconv.Atoi(orderStr)
			if err != nil || order < 1 || order > maxOrder {
				return nil, fmt.Errorf("unexpected section header %q", line)
			}

			for scanner.Scan() {
				entry := strings.TrimSpace(scanner.Text())
				if entry == "" {
					continue
				}
				if strings.HasPrefix(entry, "\\") {
					break
				}
				if err := parseNGramLine(model, order, entry); err != nil {
					return nil, fmt.Errorf("parse n-gram line %q: %w", entry, err)
				}
			}
			continue
		}

		if !scanner.Scan() {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	for order, want := range declared {
		if got := model.NumNGrams(order); got != want {
			return nil, fmt.Errorf("%d-grams: header declares %d, read %d", order, want, got)
		}
	}

	return model, nil
}

// LoadARPAFile is a convenience wrapper that opens a file path.
func LoadARPAFile(path string) (*NGramModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadARPA(f)
}

func parseNGramLine(model *NGramModel, order int, line string) error {
	fields := strings.Fields(line)
	if len(fields) < order+1 {
		return fmt.Errorf("too few fields for %d-gram", order)
	}

	logProb, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return fmt.Errorf("parse log prob: %w", err)
	}

	var logBackoff float64
	if len(fields) > order+1 {
		logBackoff, err = strconv.ParseFloat(fields[order+1], 64)
		if err != nil {
			return fmt.Errorf("parse backoff: %w", err)
		}
	}

	model.Add(fields[1:order+1], logProb, logBackoff)
	return nil
}
