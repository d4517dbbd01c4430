package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ldi/opsvault/internal/gen"
	"github.com/ldi/opsvault/internal/query"
	"github.com/ldi/opsvault/internal/store"
	"github.com/ldi/opsvault/pkg/models"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates a new MCP server over the task store. The gen
// service may be nil; generation tools then report that no generator is
// configured instead of being hidden.
func NewServer(s *store.Store, svc *gen.Service) *server.MCPServer {
	srv := server.NewMCPServer("OpsVault", "0.1.0")

	// Task Management
	srv.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Create a new task. New tasks start at Needs_Action."),
		mcp.WithString("title", mcp.Description("Task title"), mcp.Required()),
		mcp.WithString("kind", mcp.Description("Task kind (email|finance|social|system|notes), defaults to system")),
		mcp.WithString("priority", mcp.Description("Priority (Low|Medium|High), defaults to Medium")),
		mcp.WithString("content", mcp.Description("Free-text content")),
		mcp.WithString("due_date", mcp.Description("Due date as YYYY-MM-DD")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
	), createTaskHandler(s))

	srv.AddTool(mcp.NewTool("get_task",
		mcp.WithDescription("Get a single task by id, including its history."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
	), getTaskHandler(s))

	srv.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks with optional filters and sorting."),
		mcp.WithString("kind", mcp.Description("Filter by kind")),
		mcp.WithString("status", mcp.Description("Filter by status")),
		mcp.WithString("due", mcp.Description("Due bucket (all|has_due_date|overdue|next_7_days)")),
		mcp.WithString("sort_by", mcp.Description("Sort key (title|status|priority|created_at|due_date)")),
		mcp.WithString("order", mcp.Description("Sort order (asc|desc)")),
		mcp.WithBoolean("group_by_status", mcp.Description("Group results into the four status folders")),
	), listTasksHandler(s))

	srv.AddTool(mcp.NewTool("update_task",
		mcp.WithDescription("Update task fields. Omitted fields are left unchanged."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("priority", mcp.Description("New priority (Low|Medium|High)")),
		mcp.WithString("due_date", mcp.Description("New due date as YYYY-MM-DD")),
		mcp.WithBoolean("clear_due_date", mcp.Description("Remove the due date")),
		mcp.WithString("tags", mcp.Description("Replacement comma-separated tags")),
		mcp.WithString("note", mcp.Description("Optional audit note; when set, one history entry is recorded")),
	), updateTaskHandler(s))

	srv.AddTool(mcp.NewTool("save_content",
		mcp.WithDescription("Save task content as a deliberate checkpoint, recording one history entry."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithString("content", mcp.Description("New content"), mcp.Required()),
	), saveContentHandler(s))

	srv.AddTool(mcp.NewTool("update_task_status",
		mcp.WithDescription("Request a status change through the workflow gate. Illegal transitions are refused with the policy reason."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithString("status", mcp.Description("Target status (Needs_Action|In_Progress|Pending_Approval|Done)"), mcp.Required()),
	), updateTaskStatusHandler(s))

	srv.AddTool(mcp.NewTool("delete_tasks",
		mcp.WithDescription("Delete tasks by id. Refused when it would empty the store."),
		mcp.WithString("ids", mcp.Description("Comma-separated task ids"), mcp.Required()),
	), deleteTasksHandler(s))

	// Generation
	srv.AddTool(mcp.NewTool("suggest_tags",
		mcp.WithDescription("Generate tags for a task's content and apply them."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
	), suggestTagsHandler(svc))

	srv.AddTool(mcp.NewTool("generate_handbook",
		mcp.WithDescription("Synthesize a handbook from selected tasks and store it as a completed system task."),
		mcp.WithString("name", mcp.Description("Company or project name"), mcp.Required()),
		mcp.WithString("focus", mcp.Description("Operational focus of the handbook"), mcp.Required()),
		mcp.WithString("task_ids", mcp.Description("Comma-separated context task ids")),
		mcp.WithBoolean("include_all_notes", mcp.Description("Also sweep in every notes task")),
		mcp.WithString("stack", mcp.Description("Comma-separated technology stack")),
	), generateHandbookHandler(svc))

	srv.AddTool(mcp.NewTool("generate_briefing",
		mcp.WithDescription("Audit the selected tasks into a briefing and store it as a completed system task."),
		mcp.WithString("task_ids", mcp.Description("Comma-separated task ids to audit"), mcp.Required()),
	), generateBriefingHandler(svc))

	return srv
}

// Serve starts the MCP server on stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func createTaskHandler(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title := mcp.ParseString(request, "title", "")
		if title == "" {
			return mcp.NewToolResultError("title is required"), nil
		}

		kind := models.TaskKind(mcp.ParseString(request, "kind", string(models.TaskKindSystem)))
		if !kind.IsValid() {
			return mcp.NewToolResultError(fmt.Sprintf("invalid kind '%s'", kind)), nil
		}
		priority := models.TaskPriority(mcp.ParseString(request, "priority", string(models.PriorityMedium)))
		if !priority.IsValid() {
			return mcp.NewToolResultError(fmt.Sprintf("invalid priority '%s'", priority)), nil
		}

		d := store.Draft{
			Title:    title,
			Kind:     kind,
			Priority: priority,
			Content:  mcp.ParseString(request, "content", ""),
			Tags:     parseCSV(mcp.ParseString(request, "tags", "")),
		}
		if raw := mcp.ParseString(request, "due_date", ""); raw != "" {
			due, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid due_date '%s': expected YYYY-MM-DD", raw)), nil
			}
			d.DueDate = &due
		}

		return taskResult(s.Create(d))
	}
}

func getTaskHandler(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")

		t, err := s.Get(id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return taskResult(t)
	}
}

func listTasksHandler(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		f := query.Filter{
			Kind:   models.TaskKind(mcp.ParseString(request, "kind", "")),
			Status: models.TaskStatus(mcp.ParseString(request, "status", "")),
			Due:    query.DueFilter(mcp.ParseString(request, "due", string(query.DueAll))),
		}
		if f.Kind != "" && !f.Kind.IsValid() {
			return mcp.NewToolResultError(fmt.Sprintf("invalid kind '%s'", f.Kind)), nil
		}
		if f.Status != "" && !f.Status.IsValid() {
			return mcp.NewToolResultError(fmt.Sprintf("invalid status '%s'", f.Status)), nil
		}

		key := query.SortKey(mcp.ParseString(request, "sort_by", string(query.SortByCreatedAt)))
		order := query.SortOrder(mcp.ParseString(request, "order", string(query.Descending)))
		today := time.Now()

		if mcp.ParseBoolean(request, "group_by_status", false) {
			groups := make(map[string][]*models.Task)
			for _, b := range query.GroupByStatus(s.Tasks(), f, key, order, today) {
				groups[string(b.Status)] = b.Tasks
			}
			data, err := json.Marshal(map[string]interface{}{"groups": groups})
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(string(data)), nil
		}

		tasks := query.Apply(s.Tasks(), f, key, order, today)
		data, err := json.Marshal(map[string]interface{}{"tasks": tasks})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func updateTaskHandler(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")

		var f store.Fields
		args, _ := request.Params.Arguments.(map[string]any)
		if title, ok := args["title"].(string); ok {
			f.Title = &title
		}
		if p, ok := args["priority"].(string); ok {
			priority := models.TaskPriority(p)
			if !priority.IsValid() {
				return mcp.NewToolResultError(fmt.Sprintf("invalid priority '%s'", p)), nil
			}
			f.Priority = &priority
		}
		if raw, ok := args["due_date"].(string); ok {
			due, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid due_date '%s': expected YYYY-MM-DD", raw)), nil
			}
			f.DueDate = &due
		}
		f.ClearDueDate = mcp.ParseBoolean(request, "clear_due_date", false)
		if raw, ok := args["tags"].(string); ok {
			tags := parseCSV(raw)
			f.Tags = &tags
		}

		note := mcp.ParseString(request, "note", "")
		t, err := s.UpdateFields(id, f, note, models.ActorOperator)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return taskResult(t)
	}
}

func saveContentHandler(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")
		content := mcp.ParseString(request, "content", "")

		t, err := s.SaveContent(id, content)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return taskResult(t)
	}
}

func updateTaskStatusHandler(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")
		status := models.TaskStatus(mcp.ParseString(request, "status", ""))

		t, err := s.Transition(id, status)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return taskResult(t)
	}
}

func deleteTasksHandler(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids := parseCSV(mcp.ParseString(request, "ids", ""))
		if len(ids) == 0 {
			return mcp.NewToolResultError("ids is required"), nil
		}

		removed, err := s.Delete(ids...)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Deleted %d task(s)", len(removed))), nil
	}
}

func suggestTagsHandler(svc *gen.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if svc == nil {
			return mcp.NewToolResultError("no generator configured: set OPENAI_API_KEY"), nil
		}
		id := mcp.ParseString(request, "id", "")

		t, err := svc.ApplyTags(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return taskResult(t)
	}
}

func generateHandbookHandler(svc *gen.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if svc == nil {
			return mcp.NewToolResultError("no generator configured: set OPENAI_API_KEY"), nil
		}

		req := gen.HandbookRequest{
			Name:            mcp.ParseString(request, "name", ""),
			Focus:           mcp.ParseString(request, "focus", ""),
			TaskIDs:         parseCSV(mcp.ParseString(request, "task_ids", "")),
			IncludeAllNotes: mcp.ParseBoolean(request, "include_all_notes", false),
			Stack:           parseCSV(mcp.ParseString(request, "stack", "")),
		}

		t, err := svc.BuildHandbook(ctx, req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return taskResult(t)
	}
}

func generateBriefingHandler(svc *gen.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if svc == nil {
			return mcp.NewToolResultError("no generator configured: set OPENAI_API_KEY"), nil
		}
		ids := parseCSV(mcp.ParseString(request, "task_ids", ""))

		t, err := svc.BuildBriefing(ctx, ids)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return taskResult(t)
	}
}

func taskResult(t *models.Task) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func parseCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
