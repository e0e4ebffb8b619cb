package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"m209/internal/lugrules"
	"m209/internal/machine"
)

// cipherOptions holds the flags of one encrypt or decrypt command.
type cipherOptions struct {
	encrypt  bool
	keyPath  string
	catalog  string
	group    int
	messages bool
}

func init() {
	rootCmd.AddCommand(newCipherCmd(true), newCipherCmd(false))
}

func newCipherCmd(encrypt bool) *cobra.Command {
	opts := &cipherOptions{encrypt: encrypt}
	use, short, long := "decrypt", "Decrypt stdin with a key", `The decrypt command reads ciphertext from stdin line by line and writes the
plaintext. Whitespace in the ciphertext is ignored and Z prints as a space.
The message position carries across lines unless --messages is set, in
which case every line is a separate message starting at the key's
indicator.

Example:
  m209 decrypt --key key.yaml < message.txt`
	if encrypt {
		use, short, long = "encrypt", "Encrypt stdin with a key", `The encrypt command reads plaintext from stdin line by line and writes the
ciphertext. Letters are folded to upper case without accents, spaces are
typed as Z and any other character is dropped. The message position carries
across lines unless --messages is set.

Example:
  m209 encrypt --key key.yaml --group 5 < message.txt`
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCipher(cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.keyPath, "key", "k", "", "Key file (YAML)")
	cmd.Flags().StringVar(&opts.catalog, "catalog", "", "Published lug catalog checked against the key")
	cmd.Flags().BoolVar(&opts.messages, "messages", false, "Treat every line as a separate message")
	if encrypt {
		cmd.Flags().IntVarP(&opts.group, "group", "g", 0, "Split ciphertext into groups of n letters")
	}
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func runCipher(r io.Reader, w io.Writer, opts *cipherOptions) error {
	f, err := machine.LoadKeyFile(opts.keyPath)
	if err != nil {
		return err
	}
	var catalog *lugrules.Catalog
	if opts.catalog != "" {
		if catalog, err = lugrules.LoadCatalog(opts.catalog); err != nil {
			return err
		}
	}
	k, err := machine.NewSettingFromFile(f, catalog)
	if err != nil {
		return fmt.Errorf("key %s: %w", opts.keyPath, err)
	}
	group := 0
	if opts.encrypt {
		group = opts.group
	}
	return processIO(machine.NewStream(k, opts.encrypt), group, opts.messages, r, w)
}

// processIO runs each input line through the stream. With messages set the
// stream restarts at every line.
func processIO(s *machine.Stream, group int, messages bool, reader io.Reader, writer io.Writer) error {
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		if messages {
			s.Reset()
		}
		output, err := s.Process(scanner.Text())
		if err != nil {
			return fmt.Errorf("line at letter %d: %w", s.Position(), err)
		}
		if group > 0 {
			output = machine.Group(strings.TrimSpace(output), group)
		}
		if _, err := fmt.Fprintln(writer, output); err != nil {
			return fmt.Errorf("error writing output: %w", err)
		}
	}
	return scanner.Err()
}
