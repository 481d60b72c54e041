package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"loyaltygo/loyalty"
)

type customerFlags struct {
	data        string
	interactive bool
	fields      map[string]*string
}

func addCustomerCmd(opts *globalOptions) *cobra.Command {
	flags := &customerFlags{fields: map[string]*string{}}

	cmd := &cobra.Command{
		Use:   "add-customer",
		Short: "Register a new loyalty card customer",
		Long: `Register a new loyalty card customer.

The customer is read from a JSON file (--data, "-" for stdin), from the field
flags, or interactively (--interactive). Field flags override values from the
JSON file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configFile)
			if err != nil {
				return err
			}
			cfg.Options.Debug = cfg.Options.Debug || opts.debug

			payload, err := flags.customer(cmd.InOrStdin())
			if err != nil {
				return err
			}

			client, closeLog, err := openClient(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeLog()
			defer client.Close()

			res := client.AddCustomer(cmd.Context(), payload)
			if err := writeResult(cmd.OutOrStdout(), res); err != nil {
				return err
			}

			if res.Status == loyalty.StatusError {
				return fmt.Errorf("customer not added: %s", describeFailure(res))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.data, "data", "", "JSON file with the customer payload (- for stdin)")
	cmd.Flags().BoolVarP(&flags.interactive, "interactive", "i", false, "Prompt for the customer fields")
	for _, f := range customerFields {
		v := new(string)
		flags.fields[f.key] = v
		cmd.Flags().StringVar(v, f.flag, "", f.label)
	}

	return cmd
}

// customer assembles the payload from --data, the field flags and prompts,
// in that order of precedence (later wins).
func (f *customerFlags) customer(stdin io.Reader) (loyalty.Customer, error) {
	payload := loyalty.Customer{}

	if f.data != "" {
		var r io.Reader = stdin
		if f.data != "-" {
			file, err := os.Open(f.data)
			if err != nil {
				return nil, fmt.Errorf("could not open customer data: %w", err)
			}
			defer file.Close()
			r = file
		}
		if err := json.NewDecoder(r).Decode(&payload); err != nil {
			return nil, fmt.Errorf("could not decode customer data: %w", err)
		}
	}

	for key, value := range f.fields {
		if *value != "" {
			payload[key] = *value
		}
	}

	if f.interactive {
		if err := promptCustomer(payload); err != nil {
			return nil, err
		}
	}

	if len(payload) == 0 {
		return nil, fmt.Errorf("no customer data given, use --data, field flags or --interactive")
	}
	return payload, nil
}

func writeResult(w io.Writer, res loyalty.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func describeFailure(res loyalty.Result) string {
	switch {
	case res.Message != "":
		return res.Message
	case res.Err != nil:
		return res.Err.Error()
	default:
		return fmt.Sprintf("API returned status %d", res.StatusCode)
	}
}
