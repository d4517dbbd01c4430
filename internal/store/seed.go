package store

import (
	"github.com/ldi/opsvault/pkg/models"
)

// Seed populates an empty store with the starter vault: one task per
// operational domain, a few already worked to completion so the grouped
// view has something in every folder. No-op when the store already has
// tasks.
func (s *Store) Seed() {
	if len(s.tasks) > 0 {
		return
	}

	type seed struct {
		draft  Draft
		status []models.TaskStatus
	}

	tomorrow := s.now().AddDate(0, 0, 1)

	seeds := []seed{
		{
			draft: Draft{
				Title:    "Core_Values_Note",
				Kind:     models.TaskKindNotes,
				Priority: models.PriorityLow,
				Content:  "# Core Values\n- Transparency\n- Rapid Execution\n- Security First",
				Tags:     []string{"Culture", "Internal"},
				Actor:    models.ActorSystem,
			},
			status: []models.TaskStatus{models.TaskStatusInProgress, models.TaskStatusDone},
		},
		{
			draft: Draft{
				Title:    "FINANCE_Q1_projection",
				Kind:     models.TaskKindFinance,
				Priority: models.PriorityMedium,
				Content:  "# Q1 Financial Projection\n\n- Expected Revenue: $45,000\n- Operations Cost: $4,500\n- ROI: 10x",
				Tags:     []string{"Planning", "Revenue"},
				Actor:    models.ActorSystem,
			},
			status: []models.TaskStatus{models.TaskStatusInProgress, models.TaskStatusDone},
		},
		{
			draft: Draft{
				Title:    "WHATSAPP_urgent_lead",
				Kind:     models.TaskKindSocial,
				Priority: models.PriorityHigh,
				Content:  "User \"John\" wants pricing for Project X. Suggested reply: \"We can start at $5k/mo.\"",
				Tags:     []string{"Sales", "Urgent"},
				Actor:    models.ActorSystem,
			},
			status: []models.TaskStatus{models.TaskStatusInProgress, models.TaskStatusPendingApproval},
		},
		{
			draft: Draft{
				Title:    "EMAIL_invoice_123",
				Kind:     models.TaskKindEmail,
				Priority: models.PriorityMedium,
				Content:  "--- \ntype: email \nsubject: Invoice Question\n--- \n\nClient A asks about Jan invoice.",
				DueDate:  &tomorrow,
				Tags:     []string{"Billing", "Inquiry"},
				Actor:    models.ActorSystem,
			},
		},
		{
			draft: Draft{
				Title:    "Dashboard",
				Kind:     models.TaskKindSystem,
				Priority: models.PriorityHigh,
				Content:  "# Dashboard\n\n- [x] Weekly Briefing generated\n- [ ] Pending payments: 2\n- [ ] Unread WhatsApp: 5",
				Tags:     []string{"System", "Monitoring"},
				Actor:    models.ActorSystem,
			},
			status: []models.TaskStatus{models.TaskStatusInProgress, models.TaskStatusDone},
		},
	}

	for _, sd := range seeds {
		t := s.Create(sd.draft)
		for _, status := range sd.status {
			// Seeds only walk legal edges, so this cannot fail.
			if _, err := s.TransitionAs(t.ID, status, models.ActorOperator); err != nil {
				panic("store: seed walked an illegal workflow edge: " + err.Error())
			}
		}
	}
}
