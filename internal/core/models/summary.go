package models

import "sort"

// ProjectSummary aggregates every session sharing a project. Summaries are
// computed on demand from the session collection so they can never drift
// from the index contents.
type ProjectSummary struct {
	Project           string
	Animals           int
	Sessions          int
	SessionsPerAnimal map[string]int
	Experiments       []string
	Experimenters     []string
	FirstSession      string
	LastSession       string
	TotalFiles        int
	TotalBytes        int64
}

// AnimalSummary aggregates every session sharing (project, animal).
type AnimalSummary struct {
	Project        string
	Animal         string
	Sessions       int
	RecordingTypes []string
	FirstSession   string
	LastSession    string
	Files          int
	TotalBytes     int64
}

// SummarizeProject computes the derived view for one project. The sessions
// slice is assumed pre-filtered to that project.
func SummarizeProject(project string, sessions []*Session) ProjectSummary {
	sum := ProjectSummary{
		Project:           project,
		Sessions:          len(sessions),
		SessionsPerAnimal: map[string]int{},
	}
	experiments := map[string]bool{}
	experimenters := map[string]bool{}
	for _, s := range sessions {
		sum.SessionsPerAnimal[s.Animal]++
		if v, ok := s.MetaString("Experiment"); ok && v != "" {
			experiments[v] = true
		}
		if v, ok := s.MetaString("Experimenter"); ok && v != "" {
			experimenters[v] = true
		}
		sum.observeDateTime(s)
		sum.TotalFiles += len(s.Files)
		for _, f := range s.Files {
			sum.TotalBytes += f.Size
		}
	}
	sum.Animals = len(sum.SessionsPerAnimal)
	sum.Experiments = sortedKeys(experiments)
	sum.Experimenters = sortedKeys(experimenters)
	return sum
}

// SummarizeAnimal computes the derived view for one animal. The sessions
// slice is assumed pre-filtered to that (project, animal).
func SummarizeAnimal(project, animal string, sessions []*Session) AnimalSummary {
	sum := AnimalSummary{
		Project:  project,
		Animal:   animal,
		Sessions: len(sessions),
	}
	recTypes := map[string]bool{}
	for _, s := range sessions {
		if v, ok := s.MetaString("Recording"); ok && v != "" {
			recTypes[v] = true
		}
		if dt, ok := s.MetaString("DateTime"); ok && dt != "" {
			if sum.FirstSession == "" || dt < sum.FirstSession {
				sum.FirstSession = dt
			}
			if dt > sum.LastSession {
				sum.LastSession = dt
			}
		}
		sum.Files += len(s.Files)
		for _, f := range s.Files {
			sum.TotalBytes += f.Size
		}
	}
	sum.RecordingTypes = sortedKeys(recTypes)
	return sum
}

func (sum *ProjectSummary) observeDateTime(s *Session) {
	dt, ok := s.MetaString("DateTime")
	if !ok || dt == "" {
		return
	}
	if sum.FirstSession == "" || dt < sum.FirstSession {
		sum.FirstSession = dt
	}
	if dt > sum.LastSession {
		sum.LastSession = dt
	}
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
