package tasks

import "taskboard/pkg/models"

// ReconcileSubTasks diffs the incoming subtask list against the persisted
// collection and returns the next collection plus the ids to delete.
//
//   - an existing subtask whose id is missing from incoming is dropped
//   - an incoming entry with a matching id overwrites title/priority/deadline/
//     status on the existing entry, keeping its identity and parent linkage
//   - an incoming entry without an id becomes a new subtask of the parent
//   - a nil incoming list clears the whole collection
//
// Matching is by id only. Duplicate ids in incoming are applied in input
// order, so the last one wins.
func ReconcileSubTasks(existing []models.SubTask, incoming []models.SubTask, parentID uint) (next []models.SubTask, deletedIDs []uint) {
	if incoming == nil {
		for _, st := range existing {
			if st.ID != 0 {
				deletedIDs = append(deletedIDs, st.ID)
			}
		}
		return nil, deletedIDs
	}

	incomingIDs := make(map[uint]struct{}, len(incoming))
	for _, st := range incoming {
		if st.ID != 0 {
			incomingIDs[st.ID] = struct{}{}
		}
	}

	kept := make([]models.SubTask, 0, len(existing))
	byID := make(map[uint]int, len(existing))
	for _, st := range existing {
		if st.ID != 0 {
			if _, ok := incomingIDs[st.ID]; !ok {
				deletedIDs = append(deletedIDs, st.ID)
				continue
			}
		}
		byID[st.ID] = len(kept)
		kept = append(kept, st)
	}

	for _, in := range incoming {
		if in.ID != 0 {
			idx, ok := byID[in.ID]
			if !ok {
				// Unknown id: nothing to update, nothing to insert.
				continue
			}
			kept[idx].Title = in.Title
			kept[idx].Priority = in.Priority
			kept[idx].Deadline = in.Deadline
			kept[idx].Status = in.Status
			continue
		}
		st := in
		st.TaskID = parentID
		kept = append(kept, st)
	}

	return kept, deletedIDs
}
