/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: payloads.go
Description: Payloads command implementation for HackBench. Lists the payload
catalog grouped by vector with the explanation each variant carries. Nothing
is dispatched.
*/

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kleascm/hackbench/pkg/strategies"
)

// ListPayloads prints the full payload catalog.
func ListPayloads(cmd *cobra.Command, args []string) error {
	fmt.Println("Reflected XSS variants (escalated in order):")
	for i, v := range strategies.ReflectedVariants() {
		printVariant(i, v.Name, v.Payload, v.Explanation)
	}

	fmt.Println("\nStored XSS variants (escalated in order):")
	for i, v := range strategies.StoredVariants() {
		printVariant(i, v.Name, v.Payload, v.Explanation)
	}

	fmt.Println("\nDOM XSS exploit parameters (crafted as ?default= URLs):")
	for i, e := range strategies.DOMExploits() {
		printVariant(i, "exploit", e.Payload, e.Explanation)
	}
	return nil
}

func printVariant(index int, name, payload, explanation string) {
	fmt.Printf("  %d. [%s] %s\n", index+1, name, payload)
	fmt.Printf("     %s\n", explanation)
}
