package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ieee0824/applylm-go/language"
)

func (c *CLI) newLMBuildCommand() *cobra.Command {
	var order int
	var output string

	cmd := &cobra.Command{
		Use:   "lmbuild [text files...]",
		Short: "Build an ARPA n-gram model from tokenized text",
		Long: `Builds a Witten-Bell smoothed ARPA model. Input is one sentence per line,
words separated by spaces. With no files, text is read from stdin.`,
		Example: `  applylm lmbuild --order 3 --output model.arpa corpus.txt
  cat corpus.txt | applylm lmbuild > model.arpa`,
		RunE: func(cmd *cobra.Command, args []string) error {
			b := language.NewBuilder(order)

			sentences := 0
			if len(args) == 0 {
				n, err := readSentences(b, cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				sentences = n
			}
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				n, err := readSentences(b, f)
				f.Close()
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				sentences += n
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := b.WriteARPA(w); err != nil {
				return fmt.Errorf("write ARPA: %w", err)
			}
			c.log.Info("Built model", "order", b.Order(), "sentences", sentences)
			return nil
		},
	}

	cmd.Flags().IntVar(&order, "order", 2, "n-gram order (2..6)")
	cmd.Flags().StringVar(&output, "output", "", "output file (default: stdout)")
	return cmd
}

func readSentences(b *language.Builder, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	count := 0
	for scanner.Scan() {
		words := strings.Fields(scanner.Text())
		if len(words) == 0 {
			continue
		}
		b.AddSentence(words)
		count++
	}
	return count, scanner.Err()
}
