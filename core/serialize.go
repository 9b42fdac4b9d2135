package core

import (
	"encoding/xml"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// SupportedVersion is the only execTree document version this serializer
// accepts.
const SupportedVersion = "1.0"

type xmlArg struct {
	Value string `xml:"value,attr"`
}

type xmlResourceDef struct {
	Name  string `xml:"name,attr"`
	UUID  string `xml:"uuid,attr"`
	Avail int    `xml:"avail,attr"`
}

type xmlResourceRef struct {
	UUID string `xml:"uuid,attr"`
}

type xmlJob struct {
	Name         string           `xml:"name,attr"`
	UUID         string           `xml:"uuid,attr"`
	MustComplete string           `xml:"mustcomplete,attr"`
	HRef         string           `xml:"href,attr"`
	TColor       string           `xml:"tcolor,attr"`
	JobPath      string           `xml:"jobpath,attr,omitempty"`
	SubtreeUUID  string           `xml:"subtreeuuid,attr,omitempty"`
	LogFile      string           `xml:"logfile,attr"`
	Args         []xmlArg         `xml:"execArg"`
	Resources    []xmlResourceRef `xml:"execResource"`
}

type xmlDependency struct {
	Parent string `xml:"parent,attr"`
	Child  string `xml:"child,attr"`
	State  int    `xml:"state,attr"`
	DColor string `xml:"dcolor,attr"`
	UColor string `xml:"ucolor,attr"`
}

type xmlLegendItem struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type xmlTree struct {
	XMLName   xml.Name         `xml:"execTree"`
	Version   string           `xml:"version,attr"`
	Name      string           `xml:"name,attr"`
	HRef      string           `xml:"href,attr"`
	UUID      string           `xml:"uuid,attr"`
	Cwd       string           `xml:"cwd,attr"`
	Subtrees  []xmlTree        `xml:"execTree"`
	Resources []xmlResourceDef `xml:"execResource"`
	Jobs      []xmlJob         `xml:"execJob"`
	Deps      []xmlDependency  `xml:"execDependency"`
	Legend    []xmlLegendItem  `xml:"legendItem"`
}

// Marshal serializes the tree to an execTree XML document.
func (t *Tree) Marshal() ([]byte, error) {
	doc := t.toXML()
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshaling tree")
	}
	return out, nil
}

func (t *Tree) toXML() xmlTree {
	doc := xmlTree{
		Version: SupportedVersion,
		Name:    t.Name,
		HRef:    t.HRef,
		UUID:    t.UUID.String(),
		Cwd:     t.Cwd,
	}
	for _, r := range t.Resources() {
		doc.Resources = append(doc.Resources, xmlResourceDef{
			Name:  r.Name,
			UUID:  r.UUID.String(),
			Avail: r.Avail,
		})
	}
	seenSub := map[*Tree]bool{}
	for _, j := range t.Jobs() {
		if j.Subtree() != nil && !seenSub[j.Subtree()] {
			seenSub[j.Subtree()] = true
			doc.Subtrees = append(doc.Subtrees, j.Subtree().toXML())
		}
		doc.Jobs = append(doc.Jobs, j.toXML())
	}
	for _, d := range t.Deps() {
		doc.Deps = append(doc.Deps, xmlDependency{
			Parent: d.Parent.UUID.String(),
			Child:  d.Child.UUID.String(),
			State:  int(d.RequiredState),
			DColor: d.DColor,
			UColor: d.UColor,
		})
	}
	for k, v := range t.Legend {
		doc.Legend = append(doc.Legend, xmlLegendItem{Name: k, Value: v})
	}
	return doc
}

func (j *Job) toXML() xmlJob {
	xj := xmlJob{
		Name:         j.Name,
		UUID:         j.UUID.String(),
		MustComplete: boolStr(j.MustComplete),
		HRef:         j.HRef,
		TColor:       j.TColor,
		LogFile:      j.LogFile,
	}
	if sub := j.Subtree(); sub != nil {
		xj.SubtreeUUID = sub.UUID.String()
	} else {
		xj.JobPath = j.JobPath()
	}
	for _, a := range j.Arguments {
		xj.Args = append(xj.Args, xmlArg{Value: a})
	}
	for _, r := range j.Resources {
		xj.Resources = append(xj.Resources, xmlResourceRef{UUID: r.UUID.String()})
	}
	return xj
}

func boolStr(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// Unmarshal parses an execTree XML document into a new Tree, rejecting any
// version other than SupportedVersion.
func Unmarshal(data []byte) (*Tree, error) {
	var doc xmlTree
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing xml")
	}
	return treeFromXML(doc)
}

func treeFromXML(doc xmlTree) (*Tree, error) {
	if doc.XMLName.Local != "execTree" {
		return nil, XMLError{Reason: "expected execTree element"}
	}
	if doc.Version != SupportedVersion {
		return nil, XMLError{Reason: "tree config file version is not supported"}
	}

	id, err := uuid.Parse(doc.UUID)
	if err != nil {
		return nil, errors.Wrap(err, "parsing tree uuid")
	}

	t := &Tree{
		UUID:    id,
		Name:    doc.Name,
		HRef:    doc.HRef,
		Cwd:     doc.Cwd,
		Legend:  map[string]string{},
		doneEvt: newLatch(),
	}

	for _, xr := range doc.Resources {
		rid, err := uuid.Parse(xr.UUID)
		if err != nil {
			return nil, errors.Wrap(err, "parsing resource uuid")
		}
		t.AddResource(&Resource{
			UUID:  rid,
			Name:  xr.Name,
			Avail: xr.Avail,
			wake:  make(chan struct{}),
		})
	}

	subtreesByUUID := map[string]*Tree{}
	for _, xs := range doc.Subtrees {
		sub, err := treeFromXML(xs)
		if err != nil {
			return nil, err
		}
		t.subtrees = append(t.subtrees, sub)
		subtreesByUUID[sub.UUID.String()] = sub
	}

	jobsByUUID := map[string]*Job{}
	for _, xj := range doc.Jobs {
		jid, err := uuid.Parse(xj.UUID)
		if err != nil {
			return nil, errors.Wrap(err, "parsing job uuid")
		}
		job := &Job{
			UUID:         jid,
			Name:         xj.Name,
			HRef:         xj.HRef,
			TColor:       xj.TColor,
			MustComplete: xj.MustComplete == "True",
			LogFile:      xj.LogFile,
			progress:     -1,
			latches:      newLatchSet(),
			state:        StateIdle,
		}
		for _, a := range xj.Args {
			job.Arguments = append(job.Arguments, a.Value)
		}
		for _, rr := range xj.Resources {
			if r := t.FindResource(rr.UUID); r != nil {
				job.Resources = append(job.Resources, r)
			}
		}
		if xj.SubtreeUUID != "" {
			sub, ok := subtreesByUUID[xj.SubtreeUUID]
			if !ok {
				return nil, XMLError{Reason: "referenced subtree cannot be found"}
			}
			if err := job.SetSubtree(sub); err != nil {
				return nil, err
			}
		} else if err := job.SetJobPath(xj.JobPath); err != nil {
			return nil, err
		}
		if err := t.AddJob(job); err != nil {
			return nil, err
		}
		jobsByUUID[job.UUID.String()] = job
	}

	for _, xd := range doc.Deps {
		parent, ok := jobsByUUID[xd.Parent]
		if !ok {
			return nil, JobUndefinedErr{Name: xd.Parent}
		}
		child, ok := jobsByUUID[xd.Child]
		if !ok {
			return nil, JobUndefinedErr{Name: xd.Child}
		}
		dep, err := t.AddDep(parent, child, State(xd.State))
		if err != nil {
			return nil, err
		}
		if dep != nil {
			dep.DColor = xd.DColor
			dep.UColor = xd.UColor
		}
	}

	for _, li := range doc.Legend {
		t.Legend[li.Name] = li.Value
	}

	return t, nil
}
