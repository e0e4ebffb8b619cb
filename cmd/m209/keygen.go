package main

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"m209/internal/lugrules"
	"m209/internal/machine"
	"m209/internal/variant"
)

var (
	keygenVersion string
	keygenSeed    uint64
	keygenOutput  string
	keygenSlide   int
)

func init() {
	cmd := newKeygenCmd()
	cmd.Flags().StringVar(&keygenVersion, "version", string(variant.V1942), "Machine version whose rules the key follows")
	cmd.Flags().Uint64Var(&keygenSeed, "seed", 0, "Random seed (0 picks one)")
	cmd.Flags().StringVarP(&keygenOutput, "output", "o", "", "Write the key file here instead of stdout")
	cmd.Flags().IntVar(&keygenSlide, "slide", 0, "Slide (0-25)")
	rootCmd.AddCommand(cmd)
}

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a random key",
		Long: `The keygen command writes a random key file whose pins and lugs follow
the rules of the selected machine version.

Example:
  m209 keygen --version 1944 --seed 7 -o key.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if keygenOutput == "" {
				return runKeygen(cmd.OutOrStdout())
			}
			f, seed, err := generateKey()
			if err != nil {
				return err
			}
			if err := machine.WriteKeyFile(keygenOutput, &f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s key to %s (seed %d)\n", f.Version, keygenOutput, seed)
			return nil
		},
	}
}

// runKeygen writes a generated key file to w, preceded by its seed.
func runKeygen(w io.Writer) error {
	f, seed, err := generateKey()
	if err != nil {
		return err
	}
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "# seed: %d\n%s", seed, data)
	return err
}

func generateKey() (machine.KeyFile, uint64, error) {
	version, err := variant.ParseVersion(keygenVersion)
	if err != nil {
		return machine.KeyFile{}, 0, err
	}
	c, err := variant.For(version)
	if err != nil {
		return machine.KeyFile{}, 0, err
	}
	r, err := lugrules.New(c, nil)
	if err != nil {
		return machine.KeyFile{}, 0, err
	}
	k := machine.NewSetting(r)

	seed := keygenSeed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x5eed))
	if err := k.RandomizeLugs(rng); err != nil {
		return machine.KeyFile{}, 0, err
	}
	if err := k.RandomizePins(rng); err != nil {
		return machine.KeyFile{}, 0, err
	}
	var indicator [variant.Wheels]int
	for w, size := range variant.WheelSizes {
		indicator[w] = rng.IntN(size)
	}
	k.SetIndicator(indicator)
	if err := k.SetSlide(keygenSlide); err != nil {
		return machine.KeyFile{}, 0, err
	}

	return k.KeyFile(), seed, nil
}
