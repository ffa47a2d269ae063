// Package core provides the business logic for workout import, nutrition
// planning and calendar scheduling.
//
// The package has no knowledge of HTTP or SQL. Handlers call [Service];
// persistence is reached through the [Store] interface and events through
// [EventPublisher].
//
// # Import Pipeline
//
// An uploaded export flows through four stages:
//
//  1. [ReadImport] decodes the bytes as UTF-8, honouring a byte order mark
//     and enforcing the size limit.
//  2. [Tokenize] splits the text into rows of cells. It never rejects input.
//  3. [MakeHeaderIndex] maps header spellings to canonical fields, so both
//     raw TrainingPeaks exports and normalized snake_case files work.
//  4. [BuildWorkouts] normalizes each row into a [WorkoutRecord] or a
//     [ParseError]. Large files are normalized in parallel; output order
//     always matches input order.
//
// # Nutrition
//
// [DeriveTargets] turns workouts and a body weight into one
// [NutritionTarget] per day. Days are classified rest, easy or training by
// load hours and TSS; calories scale with the day type and intra-workout
// carbohydrate with TSS.
//
// # Calendar
//
// [Resolver] relocates unlocked items that collide with a moved item,
// trying after it first and then before it. Writes are conditional on the
// item still being unlocked, so a concurrent lock always wins.
//
// [Layout] assigns side-by-side columns and pixel geometry to a day's
// items for rendering.
//
// # Error Handling
//
// Domain failures are sentinel errors checked with [errors.Is]. [MapError]
// turns any error into a coded, user-facing message.
package core
