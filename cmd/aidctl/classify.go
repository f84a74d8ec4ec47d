package main

import (
	"strconv"
	"strings"

	"github.com/Veraticus/aidledger/internal/cli"
	"github.com/Veraticus/aidledger/internal/txerror"
	"github.com/spf13/cobra"
)

func classifyErrorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify-error <message>",
		Short: "Explain a raw ledger or wallet error",
		Long: `Run a raw error message through the same classifier used for every
submission and show how it would be reported.`,
		Example: `  aidctl classify-error "Blockhash not found"
  aidctl classify-error "custom program error: 0x1770"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := txerror.Classify(strings.Join(args, " "))
			writeln(cmd.OutOrStdout(), cli.RenderDetails(c.Title, classifiedFields(c)))
			return nil
		},
	}
}

func classifiedFields(c txerror.Classified) []cli.Field {
	fields := []cli.Field{
		{Label: "Kind", Value: string(c.Kind)},
		{Label: "Description", Value: c.Description},
		{Label: "Severity", Value: string(c.Severity)},
		{Label: "Recoverable", Value: strconv.FormatBool(c.Recoverable)},
	}
	if c.Code != nil {
		fields = append(fields, cli.Field{Label: "Code", Value: strconv.Itoa(*c.Code)})
	}
	return fields
}
