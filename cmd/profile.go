package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/govcon-cli/internal/model"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage tenant company profiles",
}

// -- profile import --

var profileImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import company profiles from YAML",
	Long:  "Accepts either a single profile document or a document with a top-level profiles list.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrap(err, "profile import: read file")
		}
		profiles, err := parseProfiles(data)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, "profile")
		if err != nil {
			return err
		}
		defer env.Close()

		for i := range profiles {
			if err := env.Store.SaveProfile(ctx, &profiles[i]); err != nil {
				return eris.Wrapf(err, "profile import: save %s", profiles[i].TenantID)
			}
		}
		zap.L().Info("profile import complete",
			zap.Int("profiles", len(profiles)),
			zap.String("file", args[0]),
		)
		return nil
	},
}

// -- profile show --

var profileShowCmd = &cobra.Command{
	Use:   "show <tenant-id>",
	Short: "Print a tenant's profile as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "profile")
		if err != nil {
			return err
		}
		defer env.Close()

		p, err := env.Store.GetProfile(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "profile show")
		}
		if p == nil {
			return eris.Errorf("profile show: no profile for tenant %s", args[0])
		}
		out, err := yaml.Marshal(p)
		if err != nil {
			return eris.Wrap(err, "profile show: marshal")
		}
		fmt.Fprint(os.Stdout, string(out))
		return nil
	},
}

type profileFile struct {
	Profiles []model.CompanyProfile `yaml:"profiles"`
}

// parseProfiles decodes one profile or a profiles list. Every profile needs a
// tenant_id and tenant ids may not repeat within a file.
func parseProfiles(data []byte) ([]model.CompanyProfile, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, eris.New("profile import: empty file")
	}

	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrap(err, "profile import: parse yaml")
	}
	profiles := file.Profiles
	if len(profiles) == 0 {
		var single model.CompanyProfile
		if err := yaml.Unmarshal(data, &single); err != nil {
			return nil, eris.Wrap(err, "profile import: parse yaml")
		}
		profiles = []model.CompanyProfile{single}
	}

	seen := make(map[string]bool, len(profiles))
	for i := range profiles {
		p := &profiles[i]
		p.TenantID = strings.TrimSpace(p.TenantID)
		if p.TenantID == "" {
			return nil, eris.Errorf("profile import: profile %d has no tenant_id", i+1)
		}
		if seen[p.TenantID] {
			return nil, eris.Errorf("profile import: tenant %s appears more than once", p.TenantID)
		}
		seen[p.TenantID] = true
		p.HeadquartersState = strings.ToUpper(strings.TrimSpace(p.HeadquartersState))
	}
	return profiles, nil
}

func init() {
	profileCmd.AddCommand(profileImportCmd, profileShowCmd)
	rootCmd.AddCommand(profileCmd)
}
