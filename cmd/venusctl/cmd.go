package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/arenignacio/venus-bugtracker/internal/config"
	"github.com/arenignacio/venus-bugtracker/internal/database"
	"github.com/arenignacio/venus-bugtracker/internal/models"
	"github.com/arenignacio/venus-bugtracker/internal/service"
)

var rootCmd = &cobra.Command{
	Use:          "venusctl",
	Short:        "Administer the venus bug tracker",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			log.Println("Error loading .env file, skipping")
		}
	},
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects and their members",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var projectCreateCmd = &cobra.Command{
	Use:     "create",
	Short:   "Create a project",
	Example: "  venusctl project create --name venus --member bob@venus.io:Bob:engineer",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := cmd.Flags().GetString("name")
		if err != nil {
			return err
		}
		raw, err := cmd.Flags().GetStringArray("member")
		if err != nil {
			return err
		}
		members := make([]models.Member, 0, len(raw))
		for _, s := range raw {
			m, err := service.ParseMember(s)
			if err != nil {
				return err
			}
			members = append(members, m)
		}
		return withProjects(cmd, func(svc *service.ProjectService) error {
			p, err := svc.Create(cmd.Context(), name, members)
			if err != nil {
				return err
			}
			return printJSON(cmd, p)
		})
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProjects(cmd, func(svc *service.ProjectService) error {
			p, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, p)
		})
	},
}

var projectAddMemberCmd = &cobra.Command{
	Use:   "add-member <id> <email:name[:role]>",
	Short: "Add a member to a project, replacing one with the same email",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := service.ParseMember(args[1])
		if err != nil {
			return err
		}
		return withProjects(cmd, func(svc *service.ProjectService) error {
			p, err := svc.AddMember(cmd.Context(), args[0], m)
			if err != nil {
				return err
			}
			return printJSON(cmd, p)
		})
	},
}

func init() {
	projectCreateCmd.Flags().String("name", "", "project name")
	projectCreateCmd.Flags().StringArray("member", nil, "member as email:name[:role], repeatable")
	_ = projectCreateCmd.MarkFlagRequired("name")

	projectCmd.AddCommand(projectCreateCmd, projectShowCmd, projectAddMemberCmd)
	rootCmd.AddCommand(projectCmd)
}

// withProjects opens the configured store for the duration of fn.
func withProjects(cmd *cobra.Command, fn func(*service.ProjectService) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Store == "memory" {
		return fmt.Errorf("STORE=memory keeps nothing between runs; point venusctl at postgres or mongo")
	}
	store, err := database.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(service.NewProjectService(store.Projects))
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalln(err.Error())
	}
}
