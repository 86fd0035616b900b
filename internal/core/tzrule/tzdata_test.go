package tzrule

// Embed the tz database so the system-tzdata cross checks run in minimal containers
import _ "time/tzdata"
