package media_file

import (
	"localdrop/internal/domain/media"
)

func fromDBModel(model *MediaFile) media.FileRecord {
	return media.FileRecord{
		Identifier:      model.Identifier,
		DisplayName:     model.DisplayName,
		Kind:            media.KindOf(model.Identifier),
		SizeBytes:       model.SizeBytes,
		CreatedAtMillis: model.CreatedAt.UnixMilli(),
	}
}

func fromDBModels(models MediaFiles) media.Snapshot {
	snap := make(media.Snapshot, len(models))
	for idx, m := range models {
		snap[idx] = fromDBModel(m)
	}

	return snap
}
