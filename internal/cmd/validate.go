package cmd

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/4tkbytes/proton-sdk-build/internal/config"
	"github.com/4tkbytes/proton-sdk-build/internal/ui"
)

//go:embed schemas/protonbuild.v1.schema.json
var schemaFS embed.FS

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the protonbuild.yaml configuration",
	Long: `Validates protonbuild.yaml against its JSON Schema. A missing file is
fine; the built-in defaults always validate.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	root, err := findWorkspaceRoot()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	configPath := filepath.Join(root, config.ConfigFileName)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Fprintln(out, ui.InfoStyle.Render("no "+config.ConfigFileName+" found, defaults apply"))
		return nil
	}

	fmt.Fprintln(out, ui.Step("validating "+config.ConfigFileName))

	configBytes, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", config.ConfigFileName, err)
	}

	// The schema validator speaks JSON; round-trip the YAML document first.
	var doc map[string]interface{}
	if err := yaml.Unmarshal(configBytes, &doc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", config.ConfigFileName, err)
	}
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to convert config to JSON: %w", err)
	}

	schemaBytes, err := schemaFS.ReadFile("schemas/protonbuild.v1.schema.json")
	if err != nil {
		return fmt.Errorf("failed to load JSON schema: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(docJSON),
	)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if result.Valid() {
		fmt.Fprintln(out, ui.Success(config.ConfigFileName+" is valid"))
		return nil
	}

	fmt.Fprintln(out, ui.Error("validation failed:"))
	for i, desc := range result.Errors() {
		fmt.Fprintf(out, "%d. %s\n", i+1, desc.String())
	}
	return fmt.Errorf("%s does not match the schema", config.ConfigFileName)
}
