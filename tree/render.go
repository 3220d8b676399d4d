package tree

import (
	"fmt"
	"io"
	"strings"

	"github.com/pbanos/copse/dataset"
	"github.com/pbanos/copse/feature"
)

type renderNode struct {
	title    string
	detail   string
	children []*renderNode
}

/*
Render takes an io.Writer, a tree, a dataset and the metadata describing it,
and writes onto the writer an ASCII drawing of the tree with the statistics
of the dataset on each branch and leaf, as well as the prediction of each
leaf. Rules are described with the metadata, which may be nil.
*/
func Render(w io.Writer, t *Tree, ds dataset.Dataset, md *feature.Metadata) error {
	r, ok := t.Rule()
	if !ok {
		_, err := fmt.Fprintf(w, "[Tree %s]\n{ unconfigured }\n", t.ID)
		return err
	}
	training, err := t.TrainingLeafStatistics()
	if err != nil {
		return err
	}
	leaves, err := t.LeafStatistics(ds)
	if err != nil {
		return err
	}
	branches, err := t.BranchStatistics(ds)
	if err != nil {
		return err
	}
	root := &renderNode{
		title:  fmt.Sprintf("Tree %s", t.ID),
		detail: NewStatistics(ds).String(),
	}
	for b, branchTitle := range BranchNames(r, md) {
		branch := &renderNode{title: branchTitle, detail: branches[b].String()}
		for i, leafRule := range BranchNames(SecondaryRules[b], md) {
			l := Leaves[2*b+i]
			branch.children = append(branch.children, &renderNode{
				title:  fmt.Sprintf("Leaf %v: %s", l, leafRule),
				detail: fmt.Sprintf("%v -> %s", leaves[l], PredictionLabel(training[l].Prediction())),
			})
		}
		root.children = append(root.children, branch)
	}
	_, err = io.WriteString(w, root.subtreeString())
	return err
}

/*
BranchNames returns the description of the branches a rule splits samples
into: the rule itself and its negation.
*/
func BranchNames(r feature.Rule, md *feature.Metadata) [2]string {
	d := r.Describe(md)
	return [2]string{d, fmt.Sprintf("NOT (%s)", d)}
}

func (n *renderNode) subtreeString() string {
	result := fmt.Sprintf("[%s]\n", n.title)
	if n.detail != "" {
		result = fmt.Sprintf("%s{ %s }\n", result, n.detail)
	}
	if len(n.children) > 0 {
		result = fmt.Sprintf("%s|\n", result)
	}
	for i, child := range n.children {
		for j, line := range strings.Split(child.subtreeString(), "\n") {
			if len(line) > 0 {
				if j == 0 {
					result = fmt.Sprintf("%s|__%s\n", result, line)
				} else {
					if i == len(n.children)-1 {
						result = fmt.Sprintf("%s   %s\n", result, line)
					} else {
						result = fmt.Sprintf("%s|  %s\n", result, line)
					}
				}
			}
		}
	}
	return result
}
