package source

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"basegraph.app/insight/internal/model"
)

// maxCommitsPerCollection bounds diff requests per collection tick.
const maxCommitsPerCollection = 500

// GitLabHistory reads change history and contributor activity from GitLab. Workspace ids are
// GitLab project paths (group/project) or numeric project ids.
type GitLabHistory struct {
	client   *gitlab.Client
	projects []string
}

// NewGitLabHistory builds a client for baseURL (empty for gitlab.com). projects scopes activity
// queries, which are not tied to a single workspace.
func NewGitLabHistory(token, baseURL string, projects []string) (*GitLabHistory, error) {
	var opts []gitlab.ClientOptionFunc
	if baseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(strings.TrimSuffix(baseURL, "/")+"/api/v4"))
	}

	client, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gitlab client: %w", err)
	}
	return &GitLabHistory{client: client, projects: projects}, nil
}

func (g *GitLabHistory) ChangesSince(ctx context.Context, workspaceID string, since time.Time) ([]model.ChangeRecord, error) {
	opts := &gitlab.ListCommitsOptions{
		Since:     gitlab.Ptr(since),
		WithStats: gitlab.Ptr(true),
		ListOptions: gitlab.ListOptions{
			Page:    1,
			PerPage: 100,
		},
	}

	var commits []*gitlab.Commit
	for len(commits) < maxCommitsPerCollection {
		page, resp, err := g.client.Commits.ListCommits(workspaceID, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("%w: listing commits for %s: %v", model.ErrCollaboratorUnavailable, workspaceID, err)
		}
		commits = append(commits, page...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	if len(commits) > maxCommitsPerCollection {
		slog.WarnContext(ctx, "commit history truncated",
			"workspace_id", workspaceID,
			"commits", len(commits),
			"limit", maxCommitsPerCollection)
		commits = commits[:maxCommitsPerCollection]
	}

	records := make([]model.ChangeRecord, 0, len(commits))
	for i := len(commits) - 1; i >= 0; i-- { // GitLab lists newest first
		c := commits[i]

		var ts time.Time
		if c.CommittedDate != nil {
			ts = *c.CommittedDate
		} else if c.CreatedAt != nil {
			ts = *c.CreatedAt
		}
		// GitLab's since is inclusive; a commit at exactly since was counted by the previous call.
		if !ts.IsZero() && !ts.After(since) {
			continue
		}

		diffs, _, err := g.client.Commits.GetCommitDiff(workspaceID, c.ID, &gitlab.GetCommitDiffOptions{}, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("%w: reading diff %s: %v", model.ErrCollaboratorUnavailable, c.ShortID, err)
		}

		rec := model.ChangeRecord{
			Revision:  c.ID,
			Author:    c.AuthorEmail,
			Timestamp: ts,
		}
		for _, d := range diffs {
			added, removed := CountDiffLines(d.Diff)
			rec.Files = append(rec.Files, model.FileChange{
				Path:      d.NewPath,
				Additions: added,
				Deletions: removed,
			})
		}
		records = append(records, rec)
	}

	return records, nil
}

// Activity counts commits, merge requests, reviews and resolved issues for a GitLab username
// across the configured projects.
func (g *GitLabHistory) Activity(ctx context.Context, userID string, period model.TimeRange) (model.ActivityCounts, error) {
	var counts model.ActivityCounts
	for _, project := range g.projects {
		if err := g.commitActivity(ctx, project, userID, period, &counts); err != nil {
			return model.ActivityCounts{}, err
		}
		if err := g.mergeRequestActivity(ctx, project, userID, period, &counts); err != nil {
			return model.ActivityCounts{}, err
		}
		if err := g.issueActivity(ctx, project, userID, period, &counts); err != nil {
			return model.ActivityCounts{}, err
		}
	}
	return counts, nil
}

func (g *GitLabHistory) commitActivity(ctx context.Context, project, userID string, period model.TimeRange, counts *model.ActivityCounts) error {
	opts := &gitlab.ListCommitsOptions{
		Author:    gitlab.Ptr(userID),
		Since:     gitlab.Ptr(period.Start),
		Until:     gitlab.Ptr(period.End),
		WithStats: gitlab.Ptr(true),
		ListOptions: gitlab.ListOptions{
			Page:    1,
			PerPage: 100,
		},
	}
	for {
		commits, resp, err := g.client.Commits.ListCommits(project, opts, gitlab.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("%w: listing commits for %s: %v", model.ErrCollaboratorUnavailable, project, err)
		}
		for _, c := range commits {
			counts.Commits++
			if c.Stats != nil {
				counts.LinesAdded += int(c.Stats.Additions)
				counts.LinesRemoved += int(c.Stats.Deletions)
			}
		}
		if resp.NextPage == 0 {
			return nil
		}
		opts.Page = resp.NextPage
	}
}

func (g *GitLabHistory) mergeRequestActivity(ctx context.Context, project, userID string, period model.TimeRange, counts *model.ActivityCounts) error {
	authored := &gitlab.ListProjectMergeRequestsOptions{
		AuthorUsername: gitlab.Ptr(userID),
		CreatedAfter:   gitlab.Ptr(period.Start),
		CreatedBefore:  gitlab.Ptr(period.End),
		ListOptions:    gitlab.ListOptions{Page: 1, PerPage: 100},
	}
	for {
		mrs, resp, err := g.client.MergeRequests.ListProjectMergeRequests(project, authored, gitlab.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("%w: listing merge requests for %s: %v", model.ErrCollaboratorUnavailable, project, err)
		}
		counts.MergeRequests += len(mrs)
		if resp.NextPage == 0 {
			break
		}
		authored.Page = resp.NextPage
	}

	reviewed := &gitlab.ListProjectMergeRequestsOptions{
		ReviewerUsername: gitlab.Ptr(userID),
		UpdatedAfter:     gitlab.Ptr(period.Start),
		UpdatedBefore:    gitlab.Ptr(period.End),
		ListOptions:      gitlab.ListOptions{Page: 1, PerPage: 100},
	}
	for {
		mrs, resp, err := g.client.MergeRequests.ListProjectMergeRequests(project, reviewed, gitlab.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("%w: listing reviews for %s: %v", model.ErrCollaboratorUnavailable, project, err)
		}
		counts.ReviewsCompleted += len(mrs)
		if resp.NextPage == 0 {
			return nil
		}
		reviewed.Page = resp.NextPage
	}
}

func (g *GitLabHistory) issueActivity(ctx context.Context, project, userID string, period model.TimeRange, counts *model.ActivityCounts) error {
	opts := &gitlab.ListProjectIssuesOptions{
		State:            gitlab.Ptr("closed"),
		AssigneeUsername: gitlab.Ptr(userID),
		UpdatedAfter:     gitlab.Ptr(period.Start),
		UpdatedBefore:    gitlab.Ptr(period.End),
		ListOptions:      gitlab.ListOptions{Page: 1, PerPage: 100},
	}
	for {
		issues, resp, err := g.client.Issues.ListProjectIssues(project, opts, gitlab.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("%w: listing issues for %s: %v", model.ErrCollaboratorUnavailable, project, err)
		}
		for _, issue := range issues {
			if issue.ClosedAt != nil && period.Contains(*issue.ClosedAt) {
				counts.IssuesResolved++
			}
		}
		if resp.NextPage == 0 {
			return nil
		}
		opts.Page = resp.NextPage
	}
}

// CountDiffLines counts added and removed lines in a unified diff body. "---" and "+++" lines
// are file headers only before the first hunk; inside a hunk they are content.
func CountDiffLines(diff string) (added, removed int) {
	inHunk := false
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			inHunk = true
		case !inHunk:
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	return added, removed
}
