package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "List repositories available for code analysis",
	RunE:  runRepos,
}

func init() {
	rootCmd.AddCommand(reposCmd)
}

func runRepos(cmd *cobra.Command, args []string) error {
	var out struct {
		Repos []struct {
			GitHubURL       string `json:"githubUrl"`
			DisplayName     string `json:"displayName"`
			SonarProjectKey string `json:"sonarProjectKey"`
			Configured      bool   `json:"configured"`
		} `json:"repos"`
	}
	if err := getJSON("/code-quality/repos", &out); err != nil {
		return err
	}

	if len(out.Repos) == 0 {
		fmt.Println("No repositories configured.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPROJECT KEY\tURL\tCONFIGURED")
	for _, r := range out.Repos {
		configured := "no"
		if r.Configured {
			configured = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.DisplayName, r.SonarProjectKey, r.GitHubURL, configured)
	}
	return w.Flush()
}
