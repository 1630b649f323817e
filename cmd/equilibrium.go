/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/Teslos/pycalphad/InputParameters"
	"github.com/Teslos/pycalphad/optimizer"
)

// EquilibriumCmd represents the equilibrium command
var EquilibriumCmd = &cobra.Command{
	Use:   "equilibrium",
	Short: "Compute one equilibrium point from a YAML conditions file",
	Long: `
Samples every entered phase, extracts the per-phase and global lower
convex hulls and reports the equilibrium tie points for the target
composition,

pycalphad equilibrium -i conditions.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			meq = &ModelEquilibrium{}
		)
		meq.InputFile, _ = cmd.Flags().GetString("input")
		meq.Profile, _ = cmd.Flags().GetBool("profile")
		meq.Verbose, _ = cmd.Flags().GetBool("verbose")
		if len(meq.InputFile) == 0 {
			fmt.Println("must supply an input file containing conditions and phases")
			os.Exit(1)
		}
		RunEquilibrium(meq)
	},
}

func init() {
	rootCmd.AddCommand(EquilibriumCmd)
	EquilibriumCmd.Flags().StringP("input", "i", "", "YAML file with state variables, phases and tunables")
	EquilibriumCmd.Flags().BoolP("profile", "p", false, "write a CPU profile of the minimization")
	EquilibriumCmd.Flags().BoolP("verbose", "v", false, "print per-phase sampling and hull statistics")
}

type ModelEquilibrium struct {
	InputFile string
	Profile   bool
	Verbose   bool
}

func RunEquilibrium(meq *ModelEquilibrium) {
	if meq.Profile {
		defer profile.Start(profile.CPUProfile).Stop()
	}
	data, err := ioutil.ReadFile(meq.InputFile)
	if err != nil {
		fmt.Printf("unable to read input file: %v\n", err)
		os.Exit(1)
	}
	ep := InputParameters.NewEquilibriumParameters()
	if err = ep.Parse(data); err != nil {
		fmt.Printf("unable to parse input file: %v\n", err)
		os.Exit(1)
	}
	ep.Print()

	cond, err := ep.Conditions()
	if err != nil {
		fmt.Printf("invalid conditions: %v\n", err)
		os.Exit(1)
	}
	sublset, phaseList, _, err := ep.BuildSystem()
	if err != nil {
		fmt.Printf("unable to build system: %v\n", err)
		os.Exit(1)
	}

	gm := optimizer.NewGlobalMinimizer()
	gm.CriticalEdgeLength = ep.CriticalEdgeLength
	gm.InitialSubdivisionsPerAxis = ep.InitialSubdivisionsPerAxis
	gm.RefinementSubdivisionsPerAxis = ep.RefinementSubdivisionsPerAxis
	gm.MaxSearchDepth = ep.MaxSearchDepth
	gm.CoplanarityAllowance = ep.CoplanarityAllowance
	if ep.DiscardUnstable != nil {
		gm.DiscardUnstable = *ep.DiscardUnstable
	}
	gm.Verbose = meq.Verbose

	if err = gm.Run(phaseList, sublset, cond); err != nil {
		fmt.Printf("minimization failed: %v\n", err)
		os.Exit(1)
	}
	tiePoints, err := gm.FindTiePoints(cond)
	if err != nil {
		fmt.Printf("tie point resolution failed: %v\n", err)
		os.Exit(1)
	}
	if len(tiePoints) == 0 {
		fmt.Println("no enclosing facet: conditions are infeasible for the entered phases")
		return
	}
	fmt.Printf("%d equilibrium tie point(s):\n", len(tiePoints))
	for _, tp := range tiePoints {
		fmt.Printf("  %s: G = %12.4f J/mol\n", tp.PhaseName, tp.Energy)
		for i, el := range cond.Elements {
			fmt.Printf("    x(%s) = %8.6f\n", el, tp.GlobalCoordinates[i])
		}
	}
}
