// Package edit provides ability to edit resources in a text editor
package edit

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/amimof/metal/pkg/client"
	"github.com/amimof/metal/pkg/cmdutil"
)

var output string

func NewCmdEdit() *cobra.Command {
	var cfg client.Config
	editCmd := &cobra.Command{
		Use:     "edit",
		Short:   "Edit a resource",
		Long:    "Edit a resource in $EDITOR. Changes are sent to the server as a merge patch",
		Example: `metalctl edit node 4y3h7n`,
		Args:    cobra.ExactArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmdutil.ReadConfig(&cfg); err != nil {
				logrus.Fatal(err)
			}
			return nil
		},
	}

	editCmd.PersistentFlags().StringVarP(&output, "output", "o", "yaml", "Format to edit in (json, yaml)")

	editCmd.AddCommand(NewCmdEditNode(&cfg))
	editCmd.AddCommand(NewCmdEditTag(&cfg))
	editCmd.AddCommand(NewCmdEditZone(&cfg))

	return editCmd
}

// editPatch opens obj in an editor, decodes the result into edited and
// returns the merge patch between the two. A nil patch means nothing changed.
func editPatch(obj, edited any) (json.RawMessage, error) {
	codec, err := cmdutil.CodecFor(output)
	if err != nil {
		return nil, err
	}

	b, err := codec.Serialize(obj)
	if err != nil {
		return nil, err
	}

	tmpFile, err := os.CreateTemp("", fmt.Sprintf("metalctl-*.%s", output))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
	}()

	if _, err := tmpFile.Write(b); err != nil {
		return nil, err
	}

	// Get the editor from the environment variable, default to Vim
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}

	editorCmd := exec.Command(editor, tmpFile.Name())
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	if err := editorCmd.Run(); err != nil {
		return nil, err
	}

	ub, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		return nil, err
	}
	if err := codec.Deserialize(ub, edited); err != nil {
		return nil, err
	}

	original, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	modified, err := json.Marshal(edited)
	if err != nil {
		return nil, err
	}

	patch, err := jsonpatch.CreateMergePatch(original, modified)
	if err != nil {
		return nil, err
	}
	if string(patch) == "{}" {
		return nil, nil
	}
	return patch, nil
}

func connect(cfg *client.Config) *client.ClientSet {
	c, err := cmdutil.Connect(cfg)
	if err != nil {
		logrus.Fatalf("error setting up client: %v", err)
	}
	return c
}
