package diffreader_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleutian-oss/trueaffected/internal/diffreader"
)

func TestRead_EmptyDiff(t *testing.T) {
	result, err := diffreader.Read("")
	require.NoError(t, err)
	assert.Empty(t, result.Regions)
}

func TestRead_ModifiedFileAddedLines(t *testing.T) {
	diff := `diff --git a/src/util.ts b/src/util.ts
index 1111111..2222222 100644
--- a/src/util.ts
+++ b/src/util.ts
@@ -1,3 +1,5 @@
 export function format(x: string): string {
+  // new comment
+  console.log(x)
   return x
 }
`
	result, err := diffreader.Read(diff)
	require.NoError(t, err)
	require.Len(t, result.Regions, 1)
	region := result.Regions[0]
	assert.Equal(t, "src/util.ts", region.Path)
	assert.Equal(t, diffreader.ChangeKindModified, region.Kind)
	require.Len(t, region.Ranges, 1)
	assert.Equal(t, 2, region.Ranges[0].Start)
	assert.Equal(t, 3, region.Ranges[0].End)
}

func TestRead_NewFile(t *testing.T) {
	diff := `diff --git a/src/new.ts b/src/new.ts
new file mode 100644
index 0000000..3333333
--- /dev/null
+++ b/src/new.ts
@@ -0,0 +1,2 @@
+export const a = 1
+export const b = 2
`
	result, err := diffreader.Read(diff)
	require.NoError(t, err)
	require.Len(t, result.Regions, 1)
	assert.Equal(t, diffreader.ChangeKindAdded, result.Regions[0].Kind)
	require.Len(t, result.Regions[0].Ranges, 1)
	assert.Equal(t, 1, result.Regions[0].Ranges[0].Start)
}

func TestRead_DeletedFile(t *testing.T) {
	diff := `diff --git a/src/old.ts b/src/old.ts
deleted file mode 100644
index 4444444..0000000
--- a/src/old.ts
+++ /dev/null
@@ -1,2 +0,0 @@
-export const a = 1
-export const b = 2
`
	result, err := diffreader.Read(diff)
	require.NoError(t, err)
	require.Len(t, result.Regions, 1)
	assert.Equal(t, diffreader.ChangeKindDeleted, result.Regions[0].Kind)
	assert.Empty(t, result.Regions[0].Ranges)
}

func TestRead_TailDeletion(t *testing.T) {
	diff := `diff --git a/src/util.ts b/src/util.ts
index 1111111..2222222 100644
--- a/src/util.ts
+++ b/src/util.ts
@@ -1,4 +1,2 @@
 export function format(x: string): string {
   return x
-}
-export const unused = 1
`
	result, err := diffreader.Read(diff)
	require.NoError(t, err)
	require.Len(t, result.Regions, 1)
	require.NotEmpty(t, result.Regions[0].Ranges)
	last := result.Regions[0].Ranges[len(result.Regions[0].Ranges)-1]
	assert.Equal(t, last.Start-1, last.End)
}

func TestRead_RenameWithSimilarityHint(t *testing.T) {
	diff := `diff --git a/src/old.ts b/src/new.ts
similarity index 100%
rename from src/old.ts
rename to src/new.ts
`
	result, err := diffreader.Read(diff)
	require.NoError(t, err)
	require.Len(t, result.Regions, 1)
	region := result.Regions[0]
	assert.Equal(t, diffreader.ChangeKindRenamed, region.Kind)
	assert.Equal(t, "src/new.ts", region.Path)
	assert.Equal(t, "src/old.ts", region.OldPath)
	require.Len(t, region.Ranges, 1)
	assert.Equal(t, -1, region.Ranges[0].End)
}

func TestRead_RenameWithoutSimilarityHintStillFullFileChange(t *testing.T) {
	diff := `diff --git a/src/old.ts b/src/new.ts
rename from src/old.ts
rename to src/new.ts
`
	result, err := diffreader.Read(diff)
	require.NoError(t, err)
	require.Len(t, result.Regions, 1)
	region := result.Regions[0]
	assert.Equal(t, diffreader.ChangeKindRenamed, region.Kind)
	require.Len(t, region.Ranges, 1)
	assert.Equal(t, -1, region.Ranges[0].End)
}

func TestRange_Overlaps(t *testing.T) {
	r := diffreader.Range{Start: 5, End: 10}
	assert.True(t, r.Overlaps(1, 5))
	assert.True(t, r.Overlaps(10, 20))
	assert.True(t, r.Overlaps(6, 7))
	assert.False(t, r.Overlaps(11, 20))
	assert.False(t, r.Overlaps(1, 4))
}
