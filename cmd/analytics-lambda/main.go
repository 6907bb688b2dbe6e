// Command analytics-lambda is the Lambda function attached to the population
// upload queue. It is configured through DATASYNC_ environment variables.
package main

import (
	"fmt"
	"os"

	"github.com/rearcquest/datasync/cmd"
)

func main() {
	rootCmd := cmd.NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	rootCmd.SetArgs([]string{"lambda"})
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
