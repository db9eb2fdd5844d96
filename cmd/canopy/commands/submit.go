package commands

import (
	"fmt"

	"github.com/arborworks/canopy/src/canopy"
	"github.com/arborworks/canopy/src/forest"
	"github.com/spf13/cobra"
)

// NewSubmitCmd produces a SubmitCmd which appends one record to an authority's
// tree and pushes a certified transaction for it.
func NewSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "submit [authority] [payload]",
		Short:   "Append a record and submit its certification",
		Args:    cobra.ExactArgs(2),
		PreRunE: loadConfig,
		RunE:    submit,
	}
	AddRunFlags(cmd)
	return cmd
}

func submit(cmd *cobra.Command, args []string) error {
	authority, err := forest.ParseAuthority(args[0])
	if err != nil {
		return fmt.Errorf("parsing authority: %s", err)
	}

	// The submit command runs to completion, so the service is not needed.
	_config.NoService = true

	engine := canopy.NewCanopy(_config)

	if err := engine.Init(); err != nil {
		_config.Logger().Error("Cannot initialize engine:", err)
		return err
	}
	defer engine.Shutdown()

	index, confirmation, err := engine.Submit(authority, []byte(args[1]))
	if err != nil {
		return err
	}

	fmt.Printf("Leaf index: %d\n", index)
	fmt.Printf("Confirmation: %s\n", confirmation)

	return nil
}
