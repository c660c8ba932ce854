package commands

import (
	"fmt"

	"github.com/de-tools/alm-console/pkg/services/config"
	"github.com/spf13/cobra"
)

type ProfilesCmd struct {
	profilesPath string
}

func NewProfilesCmd(profilesPath string) *cobra.Command {
	pc := &ProfilesCmd{profilesPath: profilesPath}
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List the configured backend profiles",
		RunE:  pc.run,
	}

	cmd.Flags().StringVar(&pc.profilesPath, "profiles", profilesPath, "Path to the backend profiles file")

	return cmd
}

func (pc *ProfilesCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	registry, err := config.NewRegistry(pc.profilesPath)
	if err != nil {
		return fmt.Errorf("failed to load profiles from %s: %w", pc.profilesPath, err)
	}

	names, err := registry.GetProfiles(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No profiles found in %s\n", pc.profilesPath)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Profiles in %s:\n", pc.profilesPath)
	for _, name := range names {
		profile, err := registry.GetProfile(ctx, name)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t(invalid: %v)\n", name, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, profile.APIURL)
	}
	return nil
}
